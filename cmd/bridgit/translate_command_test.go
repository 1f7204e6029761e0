package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"bridgit/internal/session"
	"bridgit/internal/testsupport"
)

func fakeRelay(t *testing.T, result session.Payload) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/transcribe", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("audio"); err != nil {
			http.Error(w, "missing audio", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":       true,
			"transcription": "hello",
			"sessionId":     result.SessionID,
		})
	})
	mux.HandleFunc("/result/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func completedResult() session.Payload {
	p := session.NewPayload("s1", "u1", "en", "es", session.ModeSolo, "hello")
	p = p.WithTranslation("hola", "voice-es")
	p = p.WithSynthesis("https://cdn.example/clip.mp3", 0.8)
	return p.WithIdentity("voice-es")
}

func missingConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.toml")
}

func TestTranslateCommandSubmitsAndPolls(t *testing.T) {
	relay := fakeRelay(t, completedResult())
	audio := filepath.Join(t.TempDir(), "clip.webm")
	testsupport.WriteAudioFixture(t, audio, 256)

	out, err := runCommand(t,
		"translate", audio,
		"--user", "u1",
		"--from", "en",
		"--to", "es",
		"--server", relay.URL,
		"--config", missingConfigPath(t),
	)
	if err != nil {
		t.Fatalf("translate failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Session s1 accepted") {
		t.Fatalf("missing intake acknowledgement:\n%s", out)
	}
	if !strings.Contains(out, "Translation=hola") {
		t.Fatalf("missing polled result:\n%s", out)
	}
}

func TestTranslateCommandHostModeSkipsPolling(t *testing.T) {
	relay := fakeRelay(t, completedResult())
	audio := filepath.Join(t.TempDir(), "clip.webm")
	testsupport.WriteAudioFixture(t, audio, 256)

	out, err := runCommand(t,
		"translate", audio,
		"--user", "u1",
		"--from", "en",
		"--to", "es",
		"--mode", "host",
		"--server", relay.URL,
		"--config", missingConfigPath(t),
	)
	if err != nil {
		t.Fatalf("translate failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "published to channel s1_audio") {
		t.Fatalf("missing channel notice:\n%s", out)
	}
	if strings.Contains(out, "Translation=") {
		t.Fatalf("host mode should not poll:\n%s", out)
	}
}

func TestStatusCommandReportsHealth(t *testing.T) {
	relay := fakeRelay(t, completedResult())

	out, err := runCommand(t, "status", "--server", relay.URL, "--config", missingConfigPath(t))
	if err != nil {
		t.Fatalf("status failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Status=ok") && !strings.Contains(out, "ok") {
		t.Fatalf("unexpected status output:\n%s", out)
	}
}

func TestResultCommandFetchesOnce(t *testing.T) {
	relay := fakeRelay(t, completedResult())

	out, err := runCommand(t, "result", "s1", "--server", relay.URL, "--config", missingConfigPath(t))
	if err != nil {
		t.Fatalf("result failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Translation=hola") {
		t.Fatalf("missing result output:\n%s", out)
	}
}
