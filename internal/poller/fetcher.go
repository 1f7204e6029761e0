package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bridgit/internal/services"
	"bridgit/internal/session"
)

const userAgent = "Bridgit-Relay/0.1.0"

// HTTPFetcher reads session results from a relay's result endpoint.
type HTTPFetcher struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPFetcher builds a fetcher for the relay at baseURL. The token is
// optional and sent as a bearer credential when present.
func NewHTTPFetcher(baseURL, token string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch performs one GET against the result endpoint. A miss is not an
// error: the relay answers an incomplete payload and the poller keeps going.
func (f *HTTPFetcher) Fetch(ctx context.Context, sessionID string) (session.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/result/"+sessionID, nil)
	if err != nil {
		return session.Payload{}, services.Wrap(services.ErrDelivery, "poll", "fetch result", "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return session.Payload{}, services.Wrap(services.ErrDelivery, "poll", "fetch result", sessionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return session.Payload{}, services.Wrap(services.ErrDelivery, "poll", "fetch result",
			fmt.Sprintf("relay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var payload session.Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return session.Payload{}, services.Wrap(services.ErrDelivery, "poll", "fetch result", "decode response", err)
	}
	return payload, nil
}
