package ws

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skillsync/internal/usecase"
)

// Notifier publishes usecase events to the hub.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) NotifyMatchFeedback(userID uuid.UUID, event usecase.MatchFeedbackEvent) {
	if n == nil || n.hub == nil {
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		n.hub.logger.Warn("encode event failed", zap.String("type", event.Type), zap.Error(err))
		return
	}
	n.hub.SendToUser(userID, b)
}
