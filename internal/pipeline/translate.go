package pipeline

import (
	"context"

	"bridgit/internal/queue"
	"bridgit/internal/session"
	"bridgit/internal/translate"
)

// HandleTranslate runs the translation stage: validate, translate the
// transcription, pick the default voice for the target language, and enqueue
// for synthesis.
func (p *Pipeline) HandleTranslate(ctx context.Context, payload session.Payload) (session.Payload, error) {
	if err := payload.ValidateForTranslation(); err != nil {
		return session.Payload{}, err
	}
	ctx = p.stageContext(ctx, session.StageTranslate, payload)
	p.logStageStart(ctx, payload)

	result, err := p.translator.Translate(ctx, translate.Request{
		Text:       payload.Text,
		SourceLang: payload.SourceLang,
		TargetLang: payload.TargetLang,
	})
	if err != nil {
		return session.Payload{}, err
	}

	next := payload.WithTranslation(result.Text, p.cfg.VoiceForLanguage(payload.TargetLang))
	if err := next.ValidateForSynthesis(); err != nil {
		return session.Payload{}, err
	}

	if err := p.enqueue(ctx, queue.SynthesisQueue, "/callbacks/synthesize", next, p.cfg.Queue.DispatchRetries); err != nil {
		return session.Payload{}, err
	}
	p.logStageComplete(ctx, next)
	return next, nil
}
