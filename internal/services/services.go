// Package services contains the business operations of funnel: the
// directory of users, organizations and projects, memberships, and the
// proposal workflow. Every write runs in one transaction; events are
// published after it commits.
package services

import (
	"context"

	"github.com/dmitrijs2005/funnel/internal/events"
	"github.com/dmitrijs2005/funnel/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/dmitrijs2005/funnel/internal/services")

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// publish hands committed events to sink. Delivery failures are logged;
// the write they describe has already happened.
func publish(ctx context.Context, sink events.Sink, logger logging.Logger, evs ...events.Event) {
	for _, e := range evs {
		if err := sink.Publish(ctx, e); err != nil {
			logger.Error(ctx, "event publish failed", "kind", e.Kind, "entity_id", e.EntityID, "error", err)
		}
	}
}
