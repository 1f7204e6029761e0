package synthesize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bridgit/internal/config"
	"bridgit/internal/services"
)

const userAgent = "Bridgit-Relay/0.1.0"

// NewService builds a synthesizer backed by the configured speech-synthesis
// endpoint. When no endpoint is configured, an implementation that fails fast
// with a typed error is returned.
func NewService(cfg *config.Config) Synthesizer {
	endpoint := strings.TrimSpace(cfg.TTS.Endpoint)
	if endpoint == "" {
		return unconfigured{}
	}

	timeout := time.Duration(cfg.TTS.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &httpSynthesizer{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   strings.TrimSpace(cfg.TTS.APIKey),
		model:    strings.TrimSpace(cfg.TTS.Model),
		client:   &http.Client{Timeout: timeout},
	}
}

type unconfigured struct{}

func (unconfigured) Synthesize(context.Context, Request) (Result, error) {
	return Result{}, services.Wrap(services.ErrNotConfigured, "synthesize", "synthesize speech", "speech-synthesis endpoint not configured", nil)
}

type httpSynthesizer struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// Synthesize POSTs the text to the provider's per-voice synthesis route and
// decodes the hosted clip reference. A missing duration in the response is
// backfilled from the word-count estimate.
func (s *httpSynthesizer) Synthesize(ctx context.Context, req Request) (Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Result{}, services.Wrap(services.ErrValidation, "synthesize", "synthesize speech", "text is required", nil)
	}
	voiceID := strings.TrimSpace(req.VoiceID)
	if voiceID == "" {
		return Result{}, services.Wrap(services.ErrValidation, "synthesize", "synthesize speech", "voice id is required", nil)
	}

	payload := map[string]string{"text": text}
	if s.model != "" {
		payload["model_id"] = s.model
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		payload["language"] = strings.ToLower(lang)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "synthesize", "synthesize speech", "encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/"+voiceID, bytes.NewReader(body))
	if err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "synthesize", "synthesize speech", "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if s.apiKey != "" {
		httpReq.Header.Set("xi-api-key", s.apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "synthesize", "synthesize speech", "call synthesis provider", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Result{}, services.Wrap(services.ErrCapability, "synthesize", "synthesize speech",
			fmt.Sprintf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var decoded struct {
		AudioURL string  `json:"audioUrl"`
		Duration float64 `json:"duration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "synthesize", "synthesize speech", "decode provider response", err)
	}
	if strings.TrimSpace(decoded.AudioURL) == "" {
		return Result{}, services.Wrap(services.ErrCapability, "synthesize", "synthesize speech", "provider returned no audio url", nil)
	}

	duration := decoded.Duration
	if duration <= 0 {
		duration = EstimateDuration(text)
	}
	return Result{AudioURL: strings.TrimSpace(decoded.AudioURL), Duration: duration}, nil
}
