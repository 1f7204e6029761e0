package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"bridgit/internal/config"
	"bridgit/internal/services"
)

const userAgent = "Bridgit-Relay/0.1.0"

// NewService builds a transcriber backed by the configured speech-to-text
// endpoint. When no endpoint is configured, an implementation that fails fast
// with a typed error is returned.
func NewService(cfg *config.Config) Transcriber {
	endpoint := strings.TrimSpace(cfg.STT.Endpoint)
	if endpoint == "" {
		return unconfigured{}
	}

	timeout := time.Duration(cfg.STT.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &httpTranscriber{
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(cfg.STT.APIKey),
		model:    strings.TrimSpace(cfg.STT.Model),
		client:   &http.Client{Timeout: timeout},
	}
}

type unconfigured struct{}

func (unconfigured) Transcribe(context.Context, Request) (Result, error) {
	return Result{}, services.Wrap(services.ErrNotConfigured, "intake", "transcribe audio", "speech-to-text endpoint not configured", nil)
}

type httpTranscriber struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// Transcribe submits the recording as a multipart form (Whisper-style
// transcription API) and decodes the transcription text from the response.
func (t *httpTranscriber) Transcribe(ctx context.Context, req Request) (Result, error) {
	if req.Audio == nil {
		return Result{}, services.Wrap(services.ErrValidation, "intake", "transcribe audio", "audio stream is required", nil)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = "audio.webm"
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "intake", "transcribe audio", "build multipart form", err)
	}
	if _, err := io.Copy(part, req.Audio); err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "intake", "transcribe audio", "read audio stream", err)
	}
	if t.model != "" {
		if err := writer.WriteField("model", t.model); err != nil {
			return Result{}, services.Wrap(services.ErrCapability, "intake", "transcribe audio", "build multipart form", err)
		}
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		if err := writer.WriteField("language", strings.ToLower(lang)); err != nil {
			return Result{}, services.Wrap(services.ErrCapability, "intake", "transcribe audio", "build multipart form", err)
		}
	}
	if err := writer.Close(); err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "intake", "transcribe audio", "finalize multipart form", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, &body)
	if err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "intake", "transcribe audio", "build request", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("User-Agent", userAgent)
	if t.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "intake", "transcribe audio", "call speech-to-text provider", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Result{}, services.Wrap(services.ErrCapability, "intake", "transcribe audio",
			fmt.Sprintf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, services.Wrap(services.ErrCapability, "intake", "transcribe audio", "decode provider response", err)
	}
	return Result{Text: strings.TrimSpace(decoded.Text)}, nil
}
