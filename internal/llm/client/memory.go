package client

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"appforge/internal/models"
)

// HistoryLoader provides persisted conversation turns for seeding sessions.
type HistoryLoader interface {
	ListLatest(ctx context.Context, appID uint, offset, limit int) ([]models.ChatHistory, error)
}

// HydrateSession loads up to maxCount prior turns into a freshly built
// session. The newest row is skipped: it is the user message that triggered
// the current generation and is sent separately. Turns are applied oldest
// first; only user and ai rows participate. Any load failure leaves the
// session empty and returns 0.
func HydrateSession(ctx context.Context, loader HistoryLoader, s *Session, appID uint, maxCount int) int {
	if loader == nil || maxCount <= 0 {
		return 0
	}

	rows, err := loader.ListLatest(ctx, appID, 1, maxCount)
	if err != nil {
		log.Warn().Uint("app", appID).Err(err).Msg("chat history hydration failed")
		return 0
	}

	msgs := make([]*schema.Message, 0, len(rows))
	// rows are newest first; replay them oldest first
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		switch row.MessageType {
		case models.MessageTypeUser:
			msgs = append(msgs, schema.UserMessage(row.Message))
		case models.MessageTypeAI:
			msgs = append(msgs, schema.AssistantMessage(row.Message, nil))
		}
	}

	s.SeedHistory(msgs)
	return len(msgs)
}
