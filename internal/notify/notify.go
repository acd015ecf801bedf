// Package notify announces finished builds to other systems.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/retry"
)

// BuildEvent is published after every build that reached a final status.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	Status     string    `json:"status"`
	Items      int       `json:"items"`
	Pages      int       `json:"pages"`
	DurationMS int64     `json:"duration_ms"`
	Output     string    `json:"output"`
	Timestamp  time.Time `json:"timestamp"`
	Error      string    `json:"error,omitempty"`
}

// Publisher delivers build events.
type Publisher interface {
	Publish(ctx context.Context, event BuildEvent) error
	Close()
}

// NoopPublisher drops every event (default when notify.nats_url is empty).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BuildEvent) error { return nil }
func (NoopPublisher) Close()                                   {}

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes build events as JSON on a NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	retry   retry.Policy
}

// NewPublisher returns a NATSPublisher when NATS is configured and a
// NoopPublisher otherwise.
func NewPublisher(cfg config.NotifyConfig) (Publisher, error) {
	if cfg.NATSURL == "" {
		return NoopPublisher{}, nil
	}
	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("blogbuilder"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryNotify, "failed to connect to NATS").
			WithContext("url", cfg.NATSURL).
			Build()
	}
	slog.Info("NATS publisher initialized", "url", cfg.NATSURL, "subject", cfg.Subject)
	return &NATSPublisher{conn: nc, subject: cfg.Subject, retry: retry.FromConfig(cfg.Retry)}, nil
}

// Publish sends event and waits for the server to acknowledge the flush,
// retrying transient failures according to the retry policy.
func (p *NATSPublisher) Publish(ctx context.Context, event BuildEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}

	failed := "failed to publish build event"
	err = retry.Do(ctx, p.retry, func(attempt int) error {
		if attempt > 0 {
			slog.Debug("Retrying build event publish", slog.Int("attempt", attempt), logfields.BuildID(event.BuildID))
		}
		if err := p.conn.Publish(p.subject, data); err != nil {
			failed = "failed to publish build event"
			return err
		}
		flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.conn.FlushWithContext(flushCtx); err != nil {
			failed = "failed to flush build event"
			return err
		}
		return nil
	})
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryNotify, failed).
			WithContext("subject", p.subject).
			Warning().
			Build()
	}

	slog.Debug("Published build event", logfields.BuildID(event.BuildID), logfields.Status(event.Status))
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() {
	p.conn.Close()
}
