package session_test

import (
	"errors"
	"strings"
	"testing"

	"bridgit/internal/services"
	"bridgit/internal/session"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		input string
		want  session.Mode
		ok    bool
	}{
		{"solo", session.ModeSolo, true},
		{" HOST ", session.ModeHost, true},
		{"Join", session.ModeJoin, true},
		{"coach", session.ModeCoach, true},
		{"broadcast", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := session.ParseMode(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseMode(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestModeDeliveryPath(t *testing.T) {
	if !session.ModeSolo.UsesResultStore() || !session.ModeCoach.UsesResultStore() {
		t.Fatal("solo and coach must use the result store")
	}
	if session.ModeHost.UsesResultStore() || session.ModeJoin.UsesResultStore() {
		t.Fatal("host and join must not use the result store")
	}
}

func TestPayloadAccumulation(t *testing.T) {
	p := session.NewPayload("s1", "u1", "en-US", "es", session.ModeSolo, "hello")
	if p.SourceLang != "EN" || p.TargetLang != "ES" {
		t.Fatalf("expected normalized language codes, got %q -> %q", p.SourceLang, p.TargetLang)
	}
	if p.Timestamp == "" {
		t.Fatal("expected intake timestamp")
	}

	translated := p.WithTranslation("hola", "mateo")
	synthesized := translated.WithSynthesis("https://cdn.example.com/s1.mp3", 0.9)
	final := synthesized.WithIdentity("voice-final")

	if p.TranslatedText != "" {
		t.Fatal("extension must not mutate the original payload")
	}
	if final.SessionID != "s1" || translated.SessionID != "s1" || synthesized.SessionID != "s1" {
		t.Fatal("session id must be identical across all stage outputs")
	}
	if final.Text != "hello" || final.TranslatedText != "hola" {
		t.Fatal("accumulated fields must survive later extensions")
	}
	if final.VoiceID != "voice-final" {
		t.Fatalf("identity stage voice id must win, got %q", final.VoiceID)
	}
	if !final.ProcessingComplete {
		t.Fatal("identity extension must mark processing complete")
	}
	if synthesized.ProcessingComplete {
		t.Fatal("only the identity stage marks completion")
	}
}

func TestValidateForTranslationMissingField(t *testing.T) {
	p := session.NewPayload("s1", "u1", "en", "", session.ModeSolo, "hello")
	err := p.ValidateForTranslation()
	if err == nil {
		t.Fatal("expected validation error for missing target language")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "targetLang") {
		t.Fatalf("expected offending field in message, got %q", err.Error())
	}
}

func TestValidateForSynthesisRequiresVoice(t *testing.T) {
	p := session.NewPayload("s1", "u1", "en", "es", session.ModeHost, "hello")
	p = p.WithTranslation("hola", "")
	if err := p.ValidateForSynthesis(); err == nil {
		t.Fatal("expected validation error for missing voice id")
	}
}

func TestValidateForIdentityToleratesMissingText(t *testing.T) {
	p := session.Payload{
		SessionID:  "s1",
		UserID:     "u1",
		TargetLang: "ES",
		Mode:       session.ModeJoin,
		AudioURL:   "https://cdn.example.com/s1.mp3",
	}
	if err := p.ValidateForIdentity(); err != nil {
		t.Fatalf("identity validation should tolerate missing text, got %v", err)
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	p := session.NewPayload("s1", "u1", "en", "es", "broadcast", "hello")
	if err := p.ValidateForTranslation(); err == nil {
		t.Fatal("expected validation error for unknown mode")
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"en":    "EN",
		"en-US": "EN",
		"ES":    "ES",
		"pt-BR": "PT",
		"":      "",
		"zz!!":  "ZZ!!",
	}
	for input, want := range cases {
		if got := session.NormalizeLanguage(input); got != want {
			t.Fatalf("NormalizeLanguage(%q) = %q, want %q", input, got, want)
		}
	}
}
