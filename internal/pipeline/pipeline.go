package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"bridgit/internal/config"
	"bridgit/internal/logging"
	"bridgit/internal/publish"
	"bridgit/internal/queue"
	"bridgit/internal/services"
	"bridgit/internal/session"
	"bridgit/internal/synthesize"
	"bridgit/internal/transcribe"
	"bridgit/internal/translate"
	"bridgit/internal/voiceid"
)

// ResultSink is the slice of the result store the pipeline writes to.
type ResultSink interface {
	Put(ctx context.Context, payload session.Payload) error
}

// Deps bundles the pipeline's collaborators. Nil capability fields fall back
// to the configured service constructors; a nil dispatcher falls back to the
// unconfigured transport.
type Deps struct {
	Dispatcher  *queue.Dispatcher
	Transcriber transcribe.Transcriber
	Translator  translate.Translator
	Synthesizer synthesize.Synthesizer
	Tagger      voiceid.Tagger
	Results     ResultSink
	Publisher   publish.Publisher
	Logger      *slog.Logger
}

// Pipeline owns the four stage handlers and the terminal mode router. Stages
// are stateless; every invocation receives the full accumulated payload.
type Pipeline struct {
	cfg         *config.Config
	dispatcher  *queue.Dispatcher
	transcriber transcribe.Transcriber
	translator  translate.Translator
	synthesizer synthesize.Synthesizer
	tagger      voiceid.Tagger
	results     ResultSink
	publisher   publish.Publisher
	log         *slog.Logger
}

// New builds the pipeline from config and dependencies.
func New(cfg *config.Config, deps Deps) *Pipeline {
	p := &Pipeline{
		cfg:         cfg,
		dispatcher:  deps.Dispatcher,
		transcriber: deps.Transcriber,
		translator:  deps.Translator,
		synthesizer: deps.Synthesizer,
		tagger:      deps.Tagger,
		results:     deps.Results,
		publisher:   deps.Publisher,
		log:         logging.NewComponentLogger(deps.Logger, "pipeline"),
	}
	if p.dispatcher == nil {
		p.dispatcher = queue.NewDispatcher(nil, deps.Logger)
	}
	if p.transcriber == nil {
		p.transcriber = transcribe.NewService(cfg)
	}
	if p.translator == nil {
		p.translator = translate.NewService(cfg)
	}
	if p.synthesizer == nil {
		p.synthesizer = synthesize.NewService(cfg)
	}
	if p.tagger == nil {
		p.tagger = voiceid.NewService(cfg)
	}
	if p.publisher == nil {
		p.publisher = publish.NewService(cfg)
	}
	return p
}

func (p *Pipeline) stageContext(ctx context.Context, stage session.Stage, payload session.Payload) context.Context {
	ctx = services.WithSessionID(ctx, payload.SessionID)
	return services.WithStage(ctx, string(stage))
}

func (p *Pipeline) logStageStart(ctx context.Context, payload session.Payload) {
	logging.WithContext(ctx, p.log).Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String(logging.FieldMode, string(payload.Mode)),
	)
}

func (p *Pipeline) logStageComplete(ctx context.Context, payload session.Payload) {
	logging.WithContext(ctx, p.log).Info("stage complete",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String(logging.FieldMode, string(payload.Mode)),
	)
}

// enqueue submits the payload for the next stage with session metadata
// forwarded as headers.
func (p *Pipeline) enqueue(ctx context.Context, queueName, callbackPath string, payload session.Payload, retries int) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return services.Wrap(services.ErrDelivery, "dispatch", "encode payload", payload.SessionID, err)
	}
	target := p.cfg.CallbackURL(callbackPath)
	_, err = p.dispatcher.Enqueue(ctx, queue.Message{
		Queue:       queueName,
		TargetURL:   target,
		Body:        body,
		Retries:     retries,
		CallbackURL: target,
		Headers: map[string]string{
			queue.HeaderSessionID: payload.SessionID,
			queue.HeaderUserID:    payload.UserID,
			queue.HeaderMode:      string(payload.Mode),
		},
	})
	return err
}
