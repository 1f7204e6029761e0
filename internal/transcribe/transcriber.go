package transcribe

import (
	"context"
	"io"
)

// Request carries one recorded utterance to the speech-to-text capability.
type Request struct {
	Audio    io.Reader
	Filename string
	// Language is the expected source language; empty lets the provider
	// detect it.
	Language string
}

// Result is the transcription of a single utterance.
type Result struct {
	Text string
}

// Transcriber converts recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (Result, error)
}
