package poller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bridgit/internal/poller"
	"bridgit/internal/services"
	"bridgit/internal/session"
)

type scriptedFetcher struct {
	mu      sync.Mutex
	calls   int
	results []func() (session.Payload, error)
}

func (f *scriptedFetcher) Fetch(_ context.Context, sessionID string) (session.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx]()
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func incomplete(sessionID string) func() (session.Payload, error) {
	return func() (session.Payload, error) {
		return session.Payload{SessionID: sessionID}, nil
	}
}

func complete(sessionID string) func() (session.Payload, error) {
	return func() (session.Payload, error) {
		return session.Payload{SessionID: sessionID, TranslatedText: "hola", ProcessingComplete: true}, nil
	}
}

func failing(err error) func() (session.Payload, error) {
	return func() (session.Payload, error) {
		return session.Payload{}, err
	}
}

func newPoller(fetch poller.Fetcher, maxAttempts int) *poller.Poller {
	return poller.New(fetch, poller.Options{Interval: time.Millisecond, MaxAttempts: maxAttempts})
}

func TestPollResolvesOnFirstCompleteResponse(t *testing.T) {
	fetch := &scriptedFetcher{results: []func() (session.Payload, error){
		incomplete("s1"),
		incomplete("s1"),
		complete("s1"),
	}}
	p := newPoller(fetch, 30)

	payload, err := p.Poll(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if !payload.ProcessingComplete || payload.TranslatedText != "hola" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if fetch.callCount() != 3 {
		t.Fatalf("expected 3 fetches, got %d", fetch.callCount())
	}
}

func TestPollTimesOutAtAttemptCeiling(t *testing.T) {
	fetch := &scriptedFetcher{results: []func() (session.Payload, error){incomplete("s1")}}
	p := newPoller(fetch, 5)

	_, err := p.Poll(context.Background(), "s1")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
	if fetch.callCount() != 5 {
		t.Fatalf("expected exactly 5 attempts, got %d", fetch.callCount())
	}
}

func TestPollSwallowsTransientErrors(t *testing.T) {
	transient := services.Wrap(services.ErrDelivery, "poll", "fetch result", "connection refused", nil)
	fetch := &scriptedFetcher{results: []func() (session.Payload, error){
		failing(transient),
		failing(transient),
		complete("s1"),
	}}
	p := newPoller(fetch, 30)

	payload, err := p.Poll(context.Background(), "s1")
	if err != nil {
		t.Fatalf("transient errors should be retried: %v", err)
	}
	if !payload.ProcessingComplete {
		t.Fatal("expected completed payload")
	}
}

func TestPollSurfacesErrorWhenEveryAttemptFails(t *testing.T) {
	transient := services.Wrap(services.ErrDelivery, "poll", "fetch result", "connection refused", nil)
	fetch := &scriptedFetcher{results: []func() (session.Payload, error){failing(transient)}}
	p := newPoller(fetch, 3)

	_, err := p.Poll(context.Background(), "s1")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
	if !errors.Is(err, services.ErrDelivery) {
		t.Fatalf("expected underlying delivery error retained, got %v", err)
	}
}

func TestCancelStopsInFlightPoll(t *testing.T) {
	fetch := &scriptedFetcher{results: []func() (session.Payload, error){incomplete("s2")}}
	p := poller.New(fetch, poller.Options{Interval: 50 * time.Millisecond, MaxAttempts: 30})

	done := make(chan error, 1)
	go func() {
		_, err := p.Poll(context.Background(), "s2")
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	p.Cancel("s2")

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not stop after cancel")
	}
}

func TestCancelAllStopsEveryPoll(t *testing.T) {
	fetch := &scriptedFetcher{results: []func() (session.Payload, error){incomplete("x")}}
	p := poller.New(fetch, poller.Options{Interval: 50 * time.Millisecond, MaxAttempts: 30})

	done := make(chan error, 2)
	for _, id := range []string{"a", "b"} {
		go func(id string) {
			_, err := p.Poll(context.Background(), id)
			done <- err
		}(id)
	}

	time.Sleep(20 * time.Millisecond)
	p.CancelAll()

	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("expected cancellation, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("polls did not stop after CancelAll")
		}
	}
}

func TestPollRequiresSessionID(t *testing.T) {
	p := newPoller(&scriptedFetcher{results: []func() (session.Payload, error){incomplete("")}}, 3)

	_, err := p.Poll(context.Background(), "  ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}
