package session

import (
	"strings"
	"time"

	"golang.org/x/text/language"

	"bridgit/internal/services"
)

// Mode is the client-selected interaction pattern. It is fixed at intake and
// is the sole input to the terminal delivery decision.
type Mode string

const (
	// ModeSolo is a single-user session drained by polling.
	ModeSolo Mode = "solo"
	// ModeCoach is a single-user guided session, delivered like solo.
	ModeCoach Mode = "coach"
	// ModeHost is the multi-party session owner; results go to the channel.
	ModeHost Mode = "host"
	// ModeJoin is a multi-party participant; results go to the channel.
	ModeJoin Mode = "join"
)

var allModes = []Mode{ModeSolo, ModeCoach, ModeHost, ModeJoin}

// ParseMode converts a string into a known Mode.
func ParseMode(value string) (Mode, bool) {
	normalized := Mode(strings.ToLower(strings.TrimSpace(value)))
	for _, mode := range allModes {
		if mode == normalized {
			return normalized, true
		}
	}
	return "", false
}

// UsesResultStore reports whether completed sessions in this mode are held
// for polling rather than published to a channel.
func (m Mode) UsesResultStore() bool {
	return m == ModeSolo || m == ModeCoach
}

// Stage identifies one processing step of the pipeline.
type Stage string

const (
	StageIntake     Stage = "intake"
	StageTranslate  Stage = "translate"
	StageSynthesize Stage = "synthesize"
	StageIdentity   Stage = "identity"
)

// Payload is the accumulating record passed between stages. Each stage's
// output is a superset of its input; fields are added, never removed.
type Payload struct {
	SessionID  string `json:"sessionId"`
	UserID     string `json:"userId"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
	Mode       Mode   `json:"mode"`

	Text     string `json:"text"`
	AudioURL string `json:"audioUrl,omitempty"`

	TranslatedText string `json:"translatedText,omitempty"`
	VoiceID        string `json:"voiceId,omitempty"`

	Duration float64 `json:"duration,omitempty"`

	ProcessingComplete bool   `json:"processingComplete"`
	Timestamp          string `json:"timestamp,omitempty"`
}

// NewPayload builds the intake-stage payload.
func NewPayload(sessionID, userID, sourceLang, targetLang string, mode Mode, text string) Payload {
	return Payload{
		SessionID:  strings.TrimSpace(sessionID),
		UserID:     strings.TrimSpace(userID),
		SourceLang: NormalizeLanguage(sourceLang),
		TargetLang: NormalizeLanguage(targetLang),
		Mode:       mode,
		Text:       text,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// WithTranslation returns a copy extended with the translate-stage output.
func (p Payload) WithTranslation(translatedText, voiceID string) Payload {
	p.TranslatedText = translatedText
	p.VoiceID = voiceID
	return p
}

// WithSynthesis returns a copy extended with the synthesize-stage output.
// The synthesized audio URL replaces any recorded source audio URL; the
// original recording is not needed downstream.
func (p Payload) WithSynthesis(audioURL string, duration float64) Payload {
	p.AudioURL = audioURL
	p.Duration = duration
	return p
}

// WithIdentity returns a copy extended with the identity-stage output and
// marks processing complete.
func (p Payload) WithIdentity(voiceID string) Payload {
	p.VoiceID = voiceID
	p.ProcessingComplete = true
	return p
}

// ValidateForTranslation checks the fields the translate stage requires.
func (p Payload) ValidateForTranslation() error {
	return p.requireFields(StageTranslate, map[string]string{
		"sessionId":  p.SessionID,
		"userId":     p.UserID,
		"sourceLang": p.SourceLang,
		"targetLang": p.TargetLang,
		"text":       p.Text,
	})
}

// ValidateForSynthesis checks the fields the synthesize stage requires.
func (p Payload) ValidateForSynthesis() error {
	return p.requireFields(StageSynthesize, map[string]string{
		"sessionId":      p.SessionID,
		"userId":         p.UserID,
		"targetLang":     p.TargetLang,
		"translatedText": p.TranslatedText,
		"voiceId":        p.VoiceID,
	})
}

// ValidateForIdentity checks the fields the identity stage requires. Original
// and translated text are tolerated missing at this point.
func (p Payload) ValidateForIdentity() error {
	return p.requireFields(StageIdentity, map[string]string{
		"sessionId":  p.SessionID,
		"userId":     p.UserID,
		"targetLang": p.TargetLang,
		"audioUrl":   p.AudioURL,
	})
}

func (p Payload) requireFields(stage Stage, fields map[string]string) error {
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return services.Wrap(services.ErrValidation, string(stage), "validate payload", "missing required field "+name, nil)
		}
	}
	if _, ok := ParseMode(string(p.Mode)); !ok {
		return services.Wrap(services.ErrValidation, string(stage), "validate payload", "unknown mode "+string(p.Mode), nil)
	}
	return nil
}

// NormalizeLanguage canonicalizes a language code to its uppercase base form
// ("en-US" -> "EN"). Unparseable values are uppercased and trimmed as-is so
// validation can still name the offending input.
func NormalizeLanguage(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ""
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	base, _ := tag.Base()
	return strings.ToUpper(base.String())
}
