package pipeline

import (
	"context"

	"bridgit/internal/session"
	"bridgit/internal/voiceid"
)

// HandleIdentity runs the terminal stage: validate, resolve the final voice
// identity, mark the payload complete, and route it to its delivery path.
// Original and translated text may be missing here; delivery proceeds with
// whatever accumulated.
func (p *Pipeline) HandleIdentity(ctx context.Context, payload session.Payload) (session.Payload, error) {
	if err := payload.ValidateForIdentity(); err != nil {
		return session.Payload{}, err
	}
	ctx = p.stageContext(ctx, session.StageIdentity, payload)
	p.logStageStart(ctx, payload)

	result, err := p.tagger.Identify(ctx, voiceid.Request{
		SessionID: payload.SessionID,
		UserID:    payload.UserID,
		AudioURL:  payload.AudioURL,
		Language:  payload.TargetLang,
	})
	if err != nil {
		return session.Payload{}, err
	}

	next := payload.WithIdentity(result.VoiceID)
	if err := p.Route(ctx, next); err != nil {
		return session.Payload{}, err
	}
	p.logStageComplete(ctx, next)
	return next, nil
}
