package publish

import (
	"context"

	"bridgit/internal/session"
)

// EventTranslationComplete is the event type emitted when a session's clip is
// ready for channel subscribers.
const EventTranslationComplete = "translation_complete"

// Event is the wire shape delivered to channel subscribers.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the completed session fields subscribers render.
type EventData struct {
	AudioURL           string  `json:"audioUrl"`
	VoiceID            string  `json:"voiceId"`
	SessionID          string  `json:"sessionId"`
	UserID             string  `json:"userId"`
	Language           string  `json:"language"`
	OriginalText       string  `json:"originalText"`
	TranslatedText     string  `json:"translatedText"`
	Duration           float64 `json:"duration,omitempty"`
	ProcessingComplete bool    `json:"processingComplete"`
	Timestamp          string  `json:"timestamp"`
}

// Publisher delivers completed session events to a named realtime channel.
type Publisher interface {
	Publish(ctx context.Context, channel, eventType string, data EventData) error
}

// ChannelName returns the realtime channel for a session. All participants of
// a multi-party session subscribe to the same session-scoped channel.
func ChannelName(sessionID string) string {
	return sessionID + "_audio"
}

// EventFromPayload converts a completed payload into the subscriber event
// shape. Missing text fields are tolerated and delivered empty.
func EventFromPayload(p session.Payload) EventData {
	return EventData{
		AudioURL:           p.AudioURL,
		VoiceID:            p.VoiceID,
		SessionID:          p.SessionID,
		UserID:             p.UserID,
		Language:           p.TargetLang,
		OriginalText:       p.Text,
		TranslatedText:     p.TranslatedText,
		Duration:           p.Duration,
		ProcessingComplete: p.ProcessingComplete,
		Timestamp:          p.Timestamp,
	}
}
