package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bridgit/internal/config"
	"bridgit/internal/services"
)

const userAgent = "Bridgit-Relay/0.1.0"

// NewService builds a translator backed by the configured translation
// endpoint. When no endpoint is configured, an implementation that fails fast
// with a typed error is returned.
func NewService(cfg *config.Config) Translator {
	endpoint := strings.TrimSpace(cfg.Translation.Endpoint)
	if endpoint == "" {
		return unconfigured{}
	}

	timeout := time.Duration(cfg.Translation.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &httpTranslator{
		endpoint:  endpoint,
		apiKey:    strings.TrimSpace(cfg.Translation.APIKey),
		formality: strings.TrimSpace(cfg.Translation.Formality),
		client:    &http.Client{Timeout: timeout},
	}
}

type unconfigured struct{}

func (unconfigured) Translate(context.Context, Request) (Result, error) {
	return Result{}, services.Wrap(services.ErrNotConfigured, "translate", "translate text", "translation endpoint not configured", nil)
}

type httpTranslator struct {
	endpoint  string
	apiKey    string
	formality string
	client    *http.Client
}

// Translate submits a form-encoded translation request and decodes the first
// translation from the response.
func (t *httpTranslator) Translate(ctx context.Context, req Request) (Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Result{}, services.Wrap(services.ErrValidation, "translate", "translate text", "text is required", nil)
	}
	target := strings.ToUpper(strings.TrimSpace(req.TargetLang))
	if target == "" {
		return Result{}, services.Wrap(services.ErrValidation, "translate", "translate text", "target language is required", nil)
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", target)
	if source := strings.ToUpper(strings.TrimSpace(req.SourceLang)); source != "" {
		form.Set("source_lang", source)
	}
	if t.formality != "" {
		form.Set("formality", t.formality)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "translate", "translate text", "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("User-Agent", userAgent)
	if t.apiKey != "" {
		httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+t.apiKey)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "translate", "translate text", "call translation provider", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Result{}, services.Wrap(services.ErrCapability, "translate", "translate text",
			fmt.Sprintf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var decoded struct {
		Translations []struct {
			Text                   string `json:"text"`
			DetectedSourceLanguage string `json:"detected_source_language"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "translate", "translate text", "decode provider response", err)
	}
	if len(decoded.Translations) == 0 {
		return Result{}, services.Wrap(services.ErrCapability, "translate", "translate text", "provider returned no translations", nil)
	}
	first := decoded.Translations[0]
	return Result{
		Text:               first.Text,
		DetectedSourceLang: strings.ToUpper(strings.TrimSpace(first.DetectedSourceLanguage)),
	}, nil
}
