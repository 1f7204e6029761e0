package synthesize

import (
	"context"
	"strings"
)

// Request carries translated text to the speech-synthesis capability.
type Request struct {
	Text    string
	VoiceID string
	// Language is the target language the voice speaks; advisory for
	// providers that support it.
	Language string
}

// Result is a reference to synthesized speech.
type Result struct {
	AudioURL string
	// Duration is the clip length in seconds. Zero when the provider does
	// not report one; callers fall back to EstimateDuration.
	Duration float64
}

// Synthesizer renders text as speech in a given voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (Result, error)
}

// wordsPerMinute approximates conversational speech pacing for duration
// estimates when the provider reports no clip length.
const wordsPerMinute = 150.0

// EstimateDuration approximates the spoken length of text in seconds.
func EstimateDuration(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return float64(words) / wordsPerMinute * 60
}
