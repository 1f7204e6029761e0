package synthesize

import "context"

// Stub is a deterministic synthesizer for tests.
type Stub struct {
	AudioURL string
	Duration float64
	Err      error

	Calls   int
	LastReq Request
}

func (s *Stub) Synthesize(_ context.Context, req Request) (Result, error) {
	s.Calls++
	s.LastReq = req
	if s.Err != nil {
		return Result{}, s.Err
	}
	duration := s.Duration
	if duration <= 0 {
		duration = EstimateDuration(req.Text)
	}
	return Result{AudioURL: s.AudioURL, Duration: duration}, nil
}
