package dto

import (
	"time"

	"skillsync/internal/domain/matching"
)

type ScoreRequest struct {
	CandidateID string `json:"candidate_id"`
	Role        string `json:"role"`
}

type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

type MatchListResponse struct {
	Matches []matching.MatchResult `json:"matches"`
	Count   int                    `json:"count"`
}

type CachedMatchesResponse struct {
	Matches   []matching.MatchResult `json:"matches"`
	Count     int                    `json:"count"`
	Timestamp time.Time              `json:"timestamp"`
	ExpiresAt time.Time              `json:"expires_at"`
}

func NewMatchListResponse(results []matching.MatchResult) MatchListResponse {
	if results == nil {
		results = []matching.MatchResult{}
	}
	return MatchListResponse{Matches: results, Count: len(results)}
}
