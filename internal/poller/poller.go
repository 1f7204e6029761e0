package poller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"bridgit/internal/config"
	"bridgit/internal/logging"
	"bridgit/internal/services"
	"bridgit/internal/session"
)

// Fetcher reads one session's current result. Implementations return
// services.ErrNotFound or a payload with ProcessingComplete unset while the
// session is still in flight.
type Fetcher interface {
	Fetch(ctx context.Context, sessionID string) (session.Payload, error)
}

// Options adjusts polling cadence.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
	Logger      *slog.Logger
}

// Poller repeatedly fetches a session result until it completes, the attempt
// ceiling is reached, or the session's poll is cancelled.
type Poller struct {
	fetch       Fetcher
	interval    time.Duration
	maxAttempts int
	log         *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// New builds a poller over the fetcher.
func New(fetch Fetcher, opts Options) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	return &Poller{
		fetch:       fetch,
		interval:    interval,
		maxAttempts: maxAttempts,
		log:         logging.NewComponentLogger(opts.Logger, "poller"),
		cancels:     make(map[string]context.CancelFunc),
	}
}

// NewFromConfig builds a poller with the configured cadence.
func NewFromConfig(cfg *config.Config, fetch Fetcher, logger *slog.Logger) *Poller {
	return New(fetch, Options{
		Interval:    time.Duration(cfg.Poller.IntervalSeconds) * time.Second,
		MaxAttempts: cfg.Poller.MaxAttempts,
		Logger:      logger,
	})
}

// Poll fetches the session result every interval until the first response
// with ProcessingComplete set. Transient fetch errors are swallowed and
// retried; they only surface when every attempt up to the ceiling failed.
// Reaching the ceiling without completion yields services.ErrTimeout.
func (p *Poller) Poll(ctx context.Context, sessionID string) (session.Payload, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return session.Payload{}, services.Wrap(services.ErrValidation, "poll", "await result", "session id is required", nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	p.register(sessionID, cancel)
	defer p.unregister(sessionID)

	var lastErr error
	succeeded := false
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		payload, err := p.fetch.Fetch(ctx, sessionID)
		switch {
		case err == nil:
			succeeded = true
			if payload.ProcessingComplete {
				return payload, nil
			}
		case ctx.Err() != nil:
			return session.Payload{}, fmt.Errorf("poll %s: %w", sessionID, ctx.Err())
		default:
			lastErr = err
			p.log.Debug("poll attempt failed",
				logging.String(logging.FieldSessionID, sessionID),
				logging.Int("attempt", attempt),
				logging.Error(err),
			)
		}

		if attempt == p.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return session.Payload{}, fmt.Errorf("poll %s: %w", sessionID, ctx.Err())
		case <-time.After(p.interval):
		}
	}

	if !succeeded && lastErr != nil {
		return session.Payload{}, services.Wrap(services.ErrTimeout, "poll", "await result",
			fmt.Sprintf("all %d attempts failed", p.maxAttempts), lastErr)
	}
	return session.Payload{}, services.Wrap(services.ErrTimeout, "poll", "await result",
		fmt.Sprintf("no completed result after %d attempts", p.maxAttempts), nil)
}

// Cancel stops an in-flight poll for the session. The pipeline is unaffected;
// a result may still land in the store afterwards.
func (p *Poller) Cancel(sessionID string) {
	p.mu.Lock()
	cancel, ok := p.cancels[strings.TrimSpace(sessionID)]
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

// CancelAll stops every in-flight poll.
func (p *Poller) CancelAll() {
	p.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(p.cancels))
	for _, cancel := range p.cancels {
		cancels = append(cancels, cancel)
	}
	p.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

func (p *Poller) register(sessionID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.cancels[sessionID]; ok {
		existing()
	}
	p.cancels[sessionID] = cancel
}

func (p *Poller) unregister(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cancels, sessionID)
}
