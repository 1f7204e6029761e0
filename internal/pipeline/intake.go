package pipeline

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	"bridgit/internal/queue"
	"bridgit/internal/services"
	"bridgit/internal/session"
	"bridgit/internal/transcribe"
)

// IntakeRequest carries one recorded utterance into the pipeline.
type IntakeRequest struct {
	// SessionID is honored when the client supplies one; a fresh uuid is
	// generated otherwise.
	SessionID  string
	UserID     string
	SourceLang string
	TargetLang string
	Mode       string
	Audio      io.Reader
	Filename   string
}

// Intake transcribes the recording, builds the initial payload, and enqueues
// it for translation. It returns the intake payload so the caller can hand
// the session id and transcription back to the client.
func (p *Pipeline) Intake(ctx context.Context, req IntakeRequest) (session.Payload, error) {
	mode, ok := session.ParseMode(req.Mode)
	if !ok {
		return session.Payload{}, services.Wrap(services.ErrValidation, "intake", "validate request", "unknown mode "+req.Mode, nil)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return session.Payload{}, services.Wrap(services.ErrValidation, "intake", "validate request", "missing required field userId", nil)
	}
	if strings.TrimSpace(req.SourceLang) == "" || strings.TrimSpace(req.TargetLang) == "" {
		return session.Payload{}, services.Wrap(services.ErrValidation, "intake", "validate request", "missing source or target language", nil)
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	ctx = services.WithSessionID(ctx, sessionID)
	ctx = services.WithStage(ctx, string(session.StageIntake))
	p.logStageStart(ctx, session.Payload{Mode: mode})

	transcription, err := p.transcriber.Transcribe(ctx, transcribe.Request{
		Audio:    req.Audio,
		Filename: req.Filename,
		Language: req.SourceLang,
	})
	if err != nil {
		return session.Payload{}, err
	}

	payload := session.NewPayload(sessionID, req.UserID, req.SourceLang, req.TargetLang, mode, transcription.Text)
	if err := payload.ValidateForTranslation(); err != nil {
		return session.Payload{}, err
	}

	if err := p.enqueue(ctx, queue.TranslationQueue, "/callbacks/translate", payload, p.cfg.Queue.DispatchRetries); err != nil {
		return session.Payload{}, err
	}
	p.logStageComplete(ctx, payload)
	return payload, nil
}
