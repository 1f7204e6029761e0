package voiceid

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

// NewService builds a tagger backed by the configured voice-identity
// endpoint. When no endpoint is configured, an implementation that fails fast
// with a typed error is returned.
func NewService(cfg *config.Config) Tagger {
	endpoint := strings.TrimSpace(cfg.VoiceID.Endpoint)
	if endpoint == "" {
		return unconfigured{}
	}

	timeout := time.Duration(cfg.VoiceID.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &httpTagger{
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(cfg.VoiceID.APIKey),
		client:   &http.Client{Timeout: timeout},
	}
}

type unconfigured struct{}

func (unconfigured) Identify(context.Context, Request) (Result, error) {
	return Result{}, services.Wrap(services.ErrNotConfigured, "identity", "identify voice", "voice-identity endpoint not configured", nil)
}

type httpTagger struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func (t *httpTagger) Identify(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.AudioURL) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "identity", "identify voice", "audio url is required", nil)
	}

	body, err := json.Marshal(map[string]string{
		"sessionId": strings.TrimSpace(req.SessionID),
		"userId":    strings.TrimSpace(req.UserID),
		"audioUrl":  strings.TrimSpace(req.AudioURL),
		"language":  strings.ToUpper(strings.TrimSpace(req.Language)),
	})
	if err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "identity", "identify voice", "encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "identity", "identify voice", "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if t.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "identity", "identify voice", "call voice-identity provider", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Result{}, services.Wrap(services.ErrCapability, "identity", "identify voice",
			fmt.Sprintf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var decoded struct {
		VoiceID string `json:"voiceId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "identity", "identify voice", "decode provider response", err)
	}
	if strings.TrimSpace(decoded.VoiceID) == "" {
		return Result{}, services.Wrap(services.ErrCapability, "identity", "identify voice", "provider returned no voice id", nil)
	}
	return Result{VoiceID: strings.TrimSpace(decoded.VoiceID)}, nil
}
