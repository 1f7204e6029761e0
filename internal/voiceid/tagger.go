package voiceid

import "context"

// Request carries a completed clip to the voice-identity capability.
type Request struct {
	SessionID string
	UserID    string
	AudioURL  string
	Language  string
}

// Result is the identity tag for a clip.
type Result struct {
	VoiceID string
}

// Tagger resolves the voice identity for a synthesized clip.
type Tagger interface {
	Identify(ctx context.Context, req Request) (Result, error)
}
