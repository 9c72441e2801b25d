package events

import (
	"context"
	"sync"

	"postboard/models"
)

const ResponseCreated = "response.created"

// Publisher delivers domain events to interested consumers.
type Publisher interface {
	PublishResponse(ctx context.Context, event *models.ResponseEvent) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) PublishResponse(context.Context, *models.ResponseEvent) error { return nil }
func (Noop) Close() error                                                 { return nil }

// Recorder keeps published events in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []models.ResponseEvent
}

func (r *Recorder) PublishResponse(_ context.Context, event *models.ResponseEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Published returns a copy of the events recorded so far.
func (r *Recorder) Published() []models.ResponseEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ResponseEvent(nil), r.events...)
}

func (r *Recorder) Close() error { return nil }
