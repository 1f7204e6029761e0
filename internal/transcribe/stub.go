package transcribe

import (
	"context"
	"io"
)

// Stub is a deterministic transcriber for tests. It records the last request
// and returns a fixed result.
type Stub struct {
	Text string
	Err  error

	Calls        int
	LastLanguage string
	LastBytes    []byte
}

func (s *Stub) Transcribe(_ context.Context, req Request) (Result, error) {
	s.Calls++
	s.LastLanguage = req.Language
	if req.Audio != nil {
		s.LastBytes, _ = io.ReadAll(req.Audio)
	}
	if s.Err != nil {
		return Result{}, s.Err
	}
	return Result{Text: s.Text}, nil
}
