package voiceid

import "context"

// Stub is a deterministic tagger for tests.
type Stub struct {
	VoiceID string
	Err     error

	Calls   int
	LastReq Request
}

func (s *Stub) Identify(_ context.Context, req Request) (Result, error) {
	s.Calls++
	s.LastReq = req
	if s.Err != nil {
		return Result{}, s.Err
	}
	return Result{VoiceID: s.VoiceID}, nil
}
