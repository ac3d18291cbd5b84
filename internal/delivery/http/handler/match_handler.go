package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"skillsync/internal/delivery/http/dto"
	"skillsync/internal/delivery/http/middleware"
	"skillsync/internal/domain/profile"
	"skillsync/internal/pkg/response"
	"skillsync/internal/usecase"
)

type MatchHandler struct {
	uc     usecase.MatchingUsecase
	logger *zap.Logger
}

func NewMatchHandler(uc usecase.MatchingUsecase, logger *zap.Logger) *MatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchHandler{uc: uc, logger: logger.Named("match_handler")}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/matches")
	grp.Get("/", h.FindMatches)
	grp.Get("/cached", h.GetCached)
	grp.Get("/statistics", h.GetStatistics)
	grp.Post("/score", h.Score)
	grp.Post("/:match_id/feedback", h.Feedback)
}

func (h *MatchHandler) FindMatches(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	role, ok := profile.ParseRole(c.Query("role"))
	if !ok {
		return middleware.NewAppError(fiber.StatusBadRequest, "role must be student or startup", nil, nil)
	}

	var opts usecase.Options
	var err error
	if opts.MinScore, err = optionalQueryInt(c, "min_score"); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "min_score must be an integer", nil, err)
	}
	if opts.Limit, err = optionalQueryInt(c, "limit"); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "limit must be an integer", nil, err)
	}

	results, err := h.uc.FindMatches(c.Context(), userID, role, opts)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchListResponse(results))
}

func (h *MatchHandler) GetCached(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	entry, found, err := h.uc.GetCachedMatches(c.Context(), userID)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}
	if !found {
		return middleware.NewAppError(fiber.StatusNotFound, "No cached matches", nil, nil)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.CachedMatchesResponse{
		Matches:   entry.Matches,
		Count:     len(entry.Matches),
		Timestamp: entry.Timestamp,
		ExpiresAt: entry.ExpiresAt,
	})
}

func (h *MatchHandler) GetStatistics(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	stats, err := h.uc.GetMatchStatistics(c.Context(), userID)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, stats)
}

func (h *MatchHandler) Score(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req dto.ScoreRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	candidateID, err := uuid.Parse(strings.TrimSpace(req.CandidateID))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "candidate_id must be a uuid", nil, err)
	}
	role, ok := profile.ParseRole(req.Role)
	if !ok {
		return middleware.NewAppError(fiber.StatusBadRequest, "role must be student or startup", nil, nil)
	}

	res, err := h.uc.CalculateMatchScore(c.Context(), userID, candidateID, role)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

// Feedback accepts the feedback for asynchronous recording. Queue failures are logged
// and still answered with 202.
func (h *MatchHandler) Feedback(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	matchID, err := uuid.Parse(c.Params("match_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "match_id must be a uuid", nil, err)
	}

	var req dto.FeedbackRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	err = h.uc.UpdateMatchFeedback(c.Context(), matchID, userID, req.Feedback)
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrInvalidFeedback),
		errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrUnauthorized):
		return mapMatchingUsecaseError(err)
	default:
		h.logger.Warn("feedback not queued",
			zap.String("user_id", userID.String()),
			zap.String("match_id", matchID.String()),
			zap.Error(err))
	}
	return response.Success(c, fiber.StatusAccepted, response.MessageAccepted, nil)
}

func optionalQueryInt(c fiber.Ctx, key string) (*int, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func mapMatchingUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrProfileNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Profile not found", nil, err)
	case errors.Is(err, usecase.ErrInvalidFeedback):
		return middleware.NewAppError(fiber.StatusBadRequest, "feedback must be accepted, rejected, saved or dismissed", nil, err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, strings.TrimPrefix(err.Error(), usecase.ErrInvalidInput.Error()+": "), nil, err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, usecase.ErrMatchingUnavailable):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, usecase.ErrMatchingUnavailable.Error(), nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
