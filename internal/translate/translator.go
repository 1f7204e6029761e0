package translate

import "context"

// Request carries one text fragment to the translation capability.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
}

// Result is the translated fragment.
type Result struct {
	Text string
	// DetectedSourceLang is the provider's view of the source language, when
	// reported.
	DetectedSourceLang string
}

// Translator converts text between languages.
type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}
