package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

var ErrProfileNotFound = errors.New("profile not found")

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

type scanner interface {
	Scan(dest ...any) error
}
