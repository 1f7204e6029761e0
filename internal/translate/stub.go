package translate

import (
	"context"
	"strings"
)

// Stub is a deterministic translator for tests. When Lookup holds an entry
// for the lowercased input text it is returned; otherwise the input passes
// through unchanged.
type Stub struct {
	Lookup map[string]string
	Err    error

	Calls   int
	LastReq Request
}

func (s *Stub) Translate(_ context.Context, req Request) (Result, error) {
	s.Calls++
	s.LastReq = req
	if s.Err != nil {
		return Result{}, s.Err
	}
	if translated, ok := s.Lookup[strings.ToLower(strings.TrimSpace(req.Text))]; ok {
		return Result{Text: translated}, nil
	}
	return Result{Text: req.Text}, nil
}
