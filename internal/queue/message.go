package queue

import (
	"encoding/json"
	"strings"

	"bridgit/internal/services"
)

// Queue names for the pipeline stages.
const (
	TranslationQueue = "translation-queue"
	SynthesisQueue   = "tts-queue"
	VoiceIDQueue     = "voice-id-queue"
)

// Forwarded metadata header names attached to every queued message.
const (
	HeaderSessionID = "X-Bridgit-Session-Id"
	HeaderUserID    = "X-Bridgit-User-Id"
	HeaderMode      = "X-Bridgit-Mode"
	HeaderQueue     = "X-Bridgit-Queue"
	HeaderDispatch  = "X-Bridgit-Dispatch-Id"
	HeaderCallback  = "X-Bridgit-Callback-Url"
)

// Message is the dispatcher's unit of transport. Retries are consumed by the
// transport, never by application code.
type Message struct {
	Queue     string
	TargetURL string
	Body      json.RawMessage
	Headers   map[string]string
	Retries   int
	// CallbackURL names the stage endpoint this message feeds. It is
	// forwarded as a header so receivers can attribute redeliveries.
	CallbackURL string
}

// Handle identifies an accepted dispatch.
type Handle struct {
	DispatchID string
	Queue      string
}

func (m *Message) validate() error {
	if strings.TrimSpace(m.Queue) == "" {
		return services.Wrap(services.ErrValidation, "dispatch", "validate message", "queue name is required", nil)
	}
	if strings.TrimSpace(m.TargetURL) == "" {
		return services.Wrap(services.ErrValidation, "dispatch", "validate message", "target url is required", nil)
	}
	if len(m.Body) == 0 {
		return services.Wrap(services.ErrValidation, "dispatch", "validate message", "body is required", nil)
	}
	if m.Retries < 0 {
		return services.Wrap(services.ErrValidation, "dispatch", "validate message", "retries must not be negative", nil)
	}
	return nil
}
