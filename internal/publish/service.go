package publish

import (
	"bytes"
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

// NewService builds a publisher backed by the configured realtime REST
// endpoint. When no endpoint is configured, an implementation that fails fast
// with a typed error is returned.
func NewService(cfg *config.Config) Publisher {
	endpoint := strings.TrimSpace(cfg.Publisher.Endpoint)
	if endpoint == "" {
		return unconfigured{}
	}

	timeout := time.Duration(cfg.Publisher.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &restPublisher{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   strings.TrimSpace(cfg.Publisher.APIKey),
		client:   &http.Client{Timeout: timeout},
	}
}

type unconfigured struct{}

func (unconfigured) Publish(context.Context, string, string, EventData) error {
	return services.Wrap(services.ErrNotConfigured, "publish", "publish event", "channel publisher not configured", nil)
}

type restPublisher struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// Publish POSTs one event to the channel's message route.
func (p *restPublisher) Publish(ctx context.Context, channel, eventType string, data EventData) error {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return services.Wrap(services.ErrValidation, "publish", "publish event", "channel name is required", nil)
	}
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		eventType = EventTranslationComplete
	}

	body, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return services.Wrap(services.ErrDelivery, "publish", "publish event", "encode event", err)
	}

	target := p.endpoint + "/channels/" + url.PathEscape(channel) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return services.Wrap(services.ErrDelivery, "publish", "publish event", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrDelivery, "publish", "publish event", channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrDelivery, "publish", "publish event",
			fmt.Sprintf("channel service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
