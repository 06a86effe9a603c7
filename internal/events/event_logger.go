package events

import (
	"github.com/rs/zerolog/log"
)

func logEvent(name string, event ToolEvent) {
	logger := log.With().
		Str("event", name).
		Str("id", event.ID).
		Str("app", event.AppKey).
		Logger()

	switch event.Type {
	case EventError:
		logger.Error().Msg(event.Message)
	case EventWarn:
		logger.Warn().Msg(event.Message)
	default:
		logger.Info().Msg(event.Message)
	}
}
