// Package buildstore persists the history of builds in SQLite.
package buildstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no build matches a query.
var ErrNotFound = errors.New("build not found")

// Record is one finished build.
type Record struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      string
	Items       int
	Pages       int
	ContentHash string
	Error       string
}

// Duration returns how long the build ran.
func (r Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store records builds and answers history queries.
type Store interface {
	Record(ctx context.Context, rec Record) error
	// Latest returns the most recent build with the given status, or any
	// status when status is empty.
	Latest(ctx context.Context, status string) (Record, error)
	// List returns up to limit builds, newest first.
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
