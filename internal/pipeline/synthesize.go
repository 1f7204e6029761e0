package pipeline

import (
	"context"

	"bridgit/internal/queue"
	"bridgit/internal/session"
	"bridgit/internal/synthesize"
)

// HandleSynthesize runs the synthesis stage: validate, render the translated
// text in the chosen voice, and enqueue for identity tagging. The voice-id
// queue carries a smaller retry budget than the others.
func (p *Pipeline) HandleSynthesize(ctx context.Context, payload session.Payload) (session.Payload, error) {
	if err := payload.ValidateForSynthesis(); err != nil {
		return session.Payload{}, err
	}
	ctx = p.stageContext(ctx, session.StageSynthesize, payload)
	p.logStageStart(ctx, payload)

	result, err := p.synthesizer.Synthesize(ctx, synthesize.Request{
		Text:     payload.TranslatedText,
		VoiceID:  payload.VoiceID,
		Language: payload.TargetLang,
	})
	if err != nil {
		return session.Payload{}, err
	}

	next := payload.WithSynthesis(result.AudioURL, result.Duration)
	if err := p.enqueue(ctx, queue.VoiceIDQueue, "/callbacks/identity", next, p.cfg.Queue.VoiceIDRetries); err != nil {
		return session.Payload{}, err
	}
	p.logStageComplete(ctx, next)
	return next, nil
}
