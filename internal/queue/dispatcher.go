package queue

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"bridgit/internal/logging"
)

// Dispatcher submits stage outputs as queued messages targeting callback
// endpoints. It owns no retry logic of its own; the transport consumes the
// per-message retry budget.
type Dispatcher struct {
	transport Transport
	log       *slog.Logger
}

// NewDispatcher constructs a dispatcher over the provided transport.
func NewDispatcher(transport Transport, logger *slog.Logger) *Dispatcher {
	if transport == nil {
		transport = Unconfigured()
	}
	return &Dispatcher{
		transport: transport,
		log:       logging.NewComponentLogger(logger, "dispatcher"),
	}
}

// Enqueue validates and hands the message to the transport. When the
// transport is unconfigured this fails fast with a typed error; callers must
// still answer their own caller, so no panic paths exist here.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) (Handle, error) {
	if err := msg.validate(); err != nil {
		return Handle{}, err
	}

	dispatchID := uuid.NewString()
	if msg.Headers == nil {
		msg.Headers = make(map[string]string, 3)
	}
	msg.Headers[HeaderQueue] = msg.Queue
	msg.Headers[HeaderDispatch] = dispatchID
	if callback := strings.TrimSpace(msg.CallbackURL); callback != "" {
		msg.Headers[HeaderCallback] = callback
	}

	if err := d.transport.Deliver(ctx, msg); err != nil {
		d.log.Warn("enqueue rejected",
			logging.String(logging.FieldQueue, msg.Queue),
			logging.Error(err),
		)
		return Handle{}, err
	}

	logging.WithContext(ctx, d.log).Debug("message queued",
		logging.String(logging.FieldQueue, msg.Queue),
		logging.String("target_url", msg.TargetURL),
		logging.String("dispatch_id", dispatchID),
		logging.Int("retries", msg.Retries),
	)
	return Handle{DispatchID: dispatchID, Queue: msg.Queue}, nil
}

// Close drains the underlying transport.
func (d *Dispatcher) Close() {
	d.transport.Close()
}
