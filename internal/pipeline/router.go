package pipeline

import (
	"context"

	"bridgit/internal/logging"
	"bridgit/internal/publish"
	"bridgit/internal/services"
	"bridgit/internal/session"
)

// Route delivers a completed payload by mode: solo and coach sessions land in
// the result store for polling, host and join sessions are published to the
// session's realtime channel. Exactly one path is taken per invocation.
func (p *Pipeline) Route(ctx context.Context, payload session.Payload) error {
	if _, ok := session.ParseMode(string(payload.Mode)); !ok {
		return services.Wrap(services.ErrValidation, "route", "deliver result", "unknown mode "+string(payload.Mode), nil)
	}

	if payload.Mode.UsesResultStore() {
		if p.results == nil {
			return services.Wrap(services.ErrNotConfigured, "route", "deliver result", "result store not configured", nil)
		}
		if err := p.results.Put(ctx, payload); err != nil {
			logging.WithContext(ctx, p.log).Error("result store write failed",
				logging.String(logging.FieldMode, string(payload.Mode)),
				logging.Error(err),
			)
			return err
		}
		logging.WithContext(ctx, p.log).Info("result stored",
			logging.String(logging.FieldMode, string(payload.Mode)),
		)
		return nil
	}

	channel := publish.ChannelName(payload.SessionID)
	if err := p.publisher.Publish(ctx, channel, publish.EventTranslationComplete, publish.EventFromPayload(payload)); err != nil {
		logging.WithContext(ctx, p.log).Error("channel publish failed",
			logging.String(logging.FieldChannel, channel),
			logging.Error(err),
		)
		return err
	}
	logging.WithContext(ctx, p.log).Info("result published",
		logging.String(logging.FieldChannel, channel),
		logging.String(logging.FieldMode, string(payload.Mode)),
	)
	return nil
}
