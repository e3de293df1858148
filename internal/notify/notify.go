// Package notify delivers best-effort user notifications. Dispatch never
// blocks the caller and never returns an error to it; failed deliveries are
// logged and dropped.
package notify

import (
	"context"
	"sync"
	"time"

	id "tramita/pkg/domain"
)

// Notification is one notice addressed to a single user of a company.
// Delivery transports may still multiplex on the company channel; the
// recipient travels in the payload.
type Notification struct {
	UserID    id.UserID      `json:"user_id"`
	CompanyID id.CompanyID   `json:"company_id"`
	ProcessID id.ProcessID   `json:"process_id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Dispatcher is the engine-facing sink.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification)
}

// NoopDispatcher discards everything. Used when no transport is configured.
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(context.Context, Notification) {}

// MemoryDispatcher records notifications for assertions in tests.
type MemoryDispatcher struct {
	mu   sync.Mutex
	sent []Notification
}

func NewMemoryDispatcher() *MemoryDispatcher {
	return &MemoryDispatcher{}
}

func (d *MemoryDispatcher) Dispatch(_ context.Context, n Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
}

// Sent returns a copy of everything dispatched so far.
func (d *MemoryDispatcher) Sent() []Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Notification{}, d.sent...)
}
