package events

import (
	"context"

	"github.com/dmitrijs2005/funnel/internal/logging"
)

// LogSink writes events to the structured log.
type LogSink struct {
	logger logging.Logger
}

func NewLogSink(logger logging.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, e Event) error {
	s.logger.Info(ctx, e.Kind,
		"entity_kind", e.EntityKind,
		"entity_id", e.EntityID,
		"actor", e.Actor,
		"name", e.Name,
		"from", e.From,
		"to", e.To,
	)
	return nil
}
