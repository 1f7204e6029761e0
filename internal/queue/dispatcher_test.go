package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bridgit/internal/queue"
	"bridgit/internal/services"
)

func TestEnqueueUnconfiguredFailsFast(t *testing.T) {
	d := queue.NewDispatcher(queue.Unconfigured(), nil)
	defer d.Close()

	_, err := d.Enqueue(context.Background(), queue.Message{
		Queue:     queue.TranslationQueue,
		TargetURL: "http://localhost/callbacks/translate",
		Body:      json.RawMessage(`{}`),
	})
	if err == nil {
		t.Fatal("expected error from unconfigured transport")
	}
	if !errors.Is(err, services.ErrNotConfigured) {
		t.Fatalf("expected not-configured marker, got %v", err)
	}
}

func TestEnqueueValidatesMessage(t *testing.T) {
	d := queue.NewDispatcher(queue.Unconfigured(), nil)
	defer d.Close()

	cases := []queue.Message{
		{TargetURL: "http://x", Body: json.RawMessage(`{}`)},
		{Queue: "q", Body: json.RawMessage(`{}`)},
		{Queue: "q", TargetURL: "http://x"},
		{Queue: "q", TargetURL: "http://x", Body: json.RawMessage(`{}`), Retries: -1},
	}
	for i, msg := range cases {
		if _, err := d.Enqueue(context.Background(), msg); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestHTTPTransportDeliversWithHeaders(t *testing.T) {
	var mu sync.Mutex
	var got *http.Request
	var body map[string]string
	done := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		got = r.Clone(context.Background())
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
		close(done)
	}))
	defer srv.Close()

	transport := queue.NewHTTPTransport(queue.HTTPTransportOptions{Backoff: 10 * time.Millisecond})
	d := queue.NewDispatcher(transport, nil)

	handle, err := d.Enqueue(context.Background(), queue.Message{
		Queue:       queue.SynthesisQueue,
		TargetURL:   srv.URL,
		Body:        json.RawMessage(`{"sessionId":"s1"}`),
		Headers:     map[string]string{queue.HeaderSessionID: "s1"},
		Retries:     3,
		CallbackURL: srv.URL + "/callbacks/synthesize",
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if handle.DispatchID == "" || handle.Queue != queue.SynthesisQueue {
		t.Fatalf("unexpected handle %+v", handle)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never arrived")
	}
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	if got.Header.Get(queue.HeaderSessionID) != "s1" {
		t.Fatal("expected forwarded session header")
	}
	if got.Header.Get(queue.HeaderQueue) != queue.SynthesisQueue {
		t.Fatal("expected queue header")
	}
	if got.Header.Get(queue.HeaderDispatch) != handle.DispatchID {
		t.Fatal("expected dispatch id header")
	}
	if got.Header.Get(queue.HeaderCallback) != srv.URL+"/callbacks/synthesize" {
		t.Fatal("expected callback url header")
	}
	if body["sessionId"] != "s1" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHTTPTransportRetriesOnServerError(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	transport := queue.NewHTTPTransport(queue.HTTPTransportOptions{Backoff: 5 * time.Millisecond})
	d := queue.NewDispatcher(transport, nil)

	if _, err := d.Enqueue(context.Background(), queue.Message{
		Queue:     queue.TranslationQueue,
		TargetURL: srv.URL,
		Body:      json.RawMessage(`{}`),
		Retries:   3,
	}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	if attempts != 3 {
		t.Fatalf("expected 3 delivery attempts, got %d", attempts)
	}
}

func TestHTTPTransportStopsOnClientError(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	transport := queue.NewHTTPTransport(queue.HTTPTransportOptions{Backoff: 5 * time.Millisecond})
	d := queue.NewDispatcher(transport, nil)

	if _, err := d.Enqueue(context.Background(), queue.Message{
		Queue:     queue.TranslationQueue,
		TargetURL: srv.URL,
		Body:      json.RawMessage(`{}`),
		Retries:   5,
	}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	if attempts != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", attempts)
	}
}

func TestHTTPTransportGivesUpAfterBudget(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	transport := queue.NewHTTPTransport(queue.HTTPTransportOptions{Backoff: time.Millisecond})
	d := queue.NewDispatcher(transport, nil)

	if _, err := d.Enqueue(context.Background(), queue.Message{
		Queue:     queue.VoiceIDQueue,
		TargetURL: srv.URL,
		Body:      json.RawMessage(`{}`),
		Retries:   2,
	}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	if attempts != 3 {
		t.Fatalf("expected retries+1 attempts, got %d", attempts)
	}
}
