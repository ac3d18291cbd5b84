package profile

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Feedback string

const (
	FeedbackAccepted  Feedback = "accepted"
	FeedbackRejected  Feedback = "rejected"
	FeedbackSaved     Feedback = "saved"
	FeedbackDismissed Feedback = "dismissed"
)

func ParseFeedback(s string) (Feedback, bool) {
	f := Feedback(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FeedbackAccepted, FeedbackRejected, FeedbackSaved, FeedbackDismissed:
		return f, true
	default:
		return "", false
	}
}

// Sign is +1 for positive feedback and -1 for negative feedback.
func (f Feedback) Sign() float64 {
	switch f {
	case FeedbackAccepted, FeedbackSaved:
		return 1
	case FeedbackRejected, FeedbackDismissed:
		return -1
	default:
		return 0
	}
}

// Interaction is one row of a user's match history.
type Interaction struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	CandidateID   uuid.UUID `json:"candidate_id"`
	Feedback      Feedback  `json:"feedback"`
	Industry      string    `json:"industry,omitempty"`
	CompanyID     uuid.UUID `json:"company_id,omitempty"`
	Skills        []string  `json:"skills,omitempty"`
	RemoteAllowed bool      `json:"remote_allowed"`
	Score         int       `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
}
