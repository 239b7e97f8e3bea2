// Package events publishes domain events once the write that produced them
// has committed.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Event kinds.
const (
	KindProposalTransitioned = "proposal.transitioned"
	KindProposalMoved        = "proposal.moved"
	KindMembershipGranted    = "membership.granted"
	KindMembershipRevoked    = "membership.revoked"
	KindMembershipAmended    = "membership.amended"
)

type Event struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	EntityKind string    `json:"entity_kind"`
	EntityID   uuid.UUID `json:"entity_id"`
	Actor      uuid.UUID `json:"actor"`
	Name       string    `json:"name,omitempty"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}

// Sink receives committed events.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to every sink concurrently. A failing sink does
// not cancel the others; their errors are joined.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, e Event) error {
	var g errgroup.Group
	errs := make([]error, len(m))
	for i, s := range m {
		g.Go(func() error {
			errs[i] = s.Publish(ctx, e)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
