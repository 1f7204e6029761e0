package queue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bridgit/internal/logging"
	"bridgit/internal/services"
)

const userAgent = "Bridgit-Relay/0.1.0"

// Transport delivers queued messages to their target endpoints. Delivery is
// asynchronous and at-least-once; ordering within a queue is not guaranteed.
type Transport interface {
	// Deliver accepts a message for asynchronous delivery. It returns an
	// error only when the transport cannot accept the message at all.
	Deliver(ctx context.Context, msg Message) error
	// Close waits for in-flight deliveries to finish.
	Close()
}

// Unconfigured returns a transport whose Deliver always fails fast with a
// typed "not configured" error, so every call site handles the absence of a
// queue backend uniformly.
func Unconfigured() Transport {
	return unconfiguredTransport{}
}

type unconfiguredTransport struct{}

func (unconfiguredTransport) Deliver(context.Context, Message) error {
	return services.Wrap(services.ErrNotConfigured, "dispatch", "deliver message", "message queue not configured", nil)
}

func (unconfiguredTransport) Close() {}

// HTTPTransportOptions configures the HTTP delivery transport.
type HTTPTransportOptions struct {
	// Backoff is the fixed delay between delivery attempts.
	Backoff time.Duration
	// RequestTimeout bounds each individual delivery attempt.
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewHTTPTransport builds the configured transport variant: messages are
// POSTed to their target URL in a background goroutine, retrying on transport
// errors and 5xx responses up to the message's retry budget. 4xx responses
// are permanent application failures and stop redelivery.
func NewHTTPTransport(opts HTTPTransportOptions) Transport {
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &httpTransport{
		client:  &http.Client{Timeout: timeout},
		backoff: backoff,
		log:     logging.NewComponentLogger(logger, "queue-transport"),
	}
}

type httpTransport struct {
	client  *http.Client
	backoff time.Duration
	log     *slog.Logger
	wg      sync.WaitGroup
}

func (t *httpTransport) Deliver(ctx context.Context, msg Message) error {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.deliverWithRetry(context.WithoutCancel(ctx), msg)
	}()
	return nil
}

func (t *httpTransport) Close() {
	t.wg.Wait()
}

func (t *httpTransport) deliverWithRetry(ctx context.Context, msg Message) {
	attempts := msg.Retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		err := t.attempt(ctx, msg)
		if err == nil {
			return
		}
		if !services.IsRetryable(err) {
			t.log.Warn("delivery permanently rejected",
				logging.String(logging.FieldQueue, msg.Queue),
				logging.String("target_url", msg.TargetURL),
				logging.Error(err),
			)
			return
		}
		if attempt == attempts {
			t.log.Error("delivery retries exhausted",
				logging.String(logging.FieldQueue, msg.Queue),
				logging.String("target_url", msg.TargetURL),
				logging.Int("attempts", attempts),
				logging.Error(err),
			)
			return
		}
		t.log.Debug("delivery attempt failed, retrying",
			logging.String(logging.FieldQueue, msg.Queue),
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.backoff):
		}
	}
}

func (t *httpTransport) attempt(ctx context.Context, msg Message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msg.TargetURL, bytes.NewReader(msg.Body))
	if err != nil {
		return services.Wrap(services.ErrValidation, "dispatch", "build request", msg.TargetURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for name, value := range msg.Headers {
		req.Header.Set(name, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrDelivery, "dispatch", "deliver message", msg.TargetURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrValidation, "dispatch", "deliver message",
			fmt.Sprintf("target rejected message with %d: %s", resp.StatusCode, bytes.TrimSpace(body)), nil)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrDelivery, "dispatch", "deliver message",
			fmt.Sprintf("target returned %d: %s", resp.StatusCode, bytes.TrimSpace(body)), nil)
	}
}
