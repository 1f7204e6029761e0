package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bridgit/internal/config"
	"bridgit/internal/pipeline"
	"bridgit/internal/publish"
	"bridgit/internal/queue"
	"bridgit/internal/resultstore"
	"bridgit/internal/server"
	"bridgit/internal/session"
	"bridgit/internal/synthesize"
	"bridgit/internal/testsupport"
	"bridgit/internal/transcribe"
	"bridgit/internal/translate"
	"bridgit/internal/voiceid"
)

type fixture struct {
	cfg   *config.Config
	store *resultstore.Store
	pub   *publish.Stub
	srv   *httptest.Server
}

// newFixture wires the full relay behind an httptest server: stage callbacks
// are delivered over real HTTP by the queue transport, so posting a recording
// drives the whole pipeline.
func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	cfg.TTS.DefaultVoice = "voice-default"
	cfg.TTS.Voices = map[string]string{"ES": "voice-es"}

	store := testsupport.MustOpenStore(t, cfg)
	pub := &publish.Stub{}

	transport := queue.NewHTTPTransport(queue.HTTPTransportOptions{
		Backoff:        10 * time.Millisecond,
		RequestTimeout: 5 * time.Second,
	})
	pipe := pipeline.New(cfg, pipeline.Deps{
		Dispatcher:  queue.NewDispatcher(transport, nil),
		Transcriber: &transcribe.Stub{Text: "hello"},
		Translator:  &translate.Stub{Lookup: map[string]string{"hello": "hola"}},
		Synthesizer: &synthesize.Stub{AudioURL: "https://cdn.example/clip.mp3", Duration: 0.8},
		Tagger:      &voiceid.Stub{VoiceID: "voice-es"},
		Results:     store,
		Publisher:   pub,
	})

	srv := server.New(cfg, pipe, store, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	cfg.Paths.BaseURL = ts.URL

	return &fixture{cfg: cfg, store: store, pub: pub, srv: ts}
}

func postRecording(t *testing.T, f *fixture, fields map[string]string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", "clip.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake-audio")); err != nil {
		t.Fatalf("write audio part: %v", err)
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	resp, err := http.Post(f.srv.URL+"/transcribe", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /transcribe: %v", err)
	}
	return resp
}

func fetchResult(t *testing.T, f *fixture, sessionID string) session.Payload {
	t.Helper()

	resp, err := http.Get(f.srv.URL + "/result/" + sessionID)
	if err != nil {
		t.Fatalf("GET /result: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected result status %d", resp.StatusCode)
	}
	var payload session.Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return payload
}

func awaitCompletion(t *testing.T, f *fixture, sessionID string) session.Payload {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		payload := fetchResult(t, f, sessionID)
		if payload.ProcessingComplete {
			return payload
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("session %s never completed", sessionID)
	return session.Payload{}
}

func TestSoloRecordingFlowsToResultStore(t *testing.T) {
	f := newFixture(t)

	resp := postRecording(t, f, map[string]string{
		"sessionId":  "s1",
		"userId":     "u1",
		"sourceLang": "en",
		"targetLang": "es",
		"mode":       "solo",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected intake status %d: %s", resp.StatusCode, body)
	}

	var intake struct {
		Success       bool   `json:"success"`
		Transcription string `json:"transcription"`
		SessionID     string `json:"sessionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&intake); err != nil {
		t.Fatalf("decode intake response: %v", err)
	}
	if !intake.Success || intake.Transcription != "hello" || intake.SessionID != "s1" {
		t.Fatalf("unexpected intake response %+v", intake)
	}

	final := awaitCompletion(t, f, "s1")
	if final.TranslatedText != "hola" {
		t.Fatalf("unexpected translation %q", final.TranslatedText)
	}
	if !strings.HasSuffix(final.AudioURL, ".mp3") {
		t.Fatalf("unexpected audio url %q", final.AudioURL)
	}
	if final.Duration < 0.5 || final.Duration > 1.5 {
		t.Fatalf("duration %v outside plausible range", final.Duration)
	}
	if final.VoiceID == "" {
		t.Fatal("expected non-empty voice id")
	}
	if len(f.pub.Events()) != 0 {
		t.Fatal("solo session must not publish to a channel")
	}
}

func TestHostRecordingPublishesToChannel(t *testing.T) {
	f := newFixture(t)

	resp := postRecording(t, f, map[string]string{
		"sessionId":  "s3",
		"userId":     "u1",
		"sourceLang": "en",
		"targetLang": "es",
		"mode":       "host",
	})
	resp.Body.Close()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(f.pub.Events()) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	events := f.pub.Events()
	if len(events) != 1 {
		t.Fatalf("expected one published event, got %d", len(events))
	}
	if events[0].Channel != "s3_audio" {
		t.Fatalf("unexpected channel %q", events[0].Channel)
	}

	if got := fetchResult(t, f, "s3"); got.ProcessingComplete {
		t.Fatal("host session must not land in the result store")
	}
}

func TestTranscribeRejectsUnknownMode(t *testing.T) {
	f := newFixture(t)

	resp := postRecording(t, f, map[string]string{
		"userId":     "u1",
		"sourceLang": "en",
		"targetLang": "es",
		"mode":       "broadcast",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestTranslateCallbackValidation(t *testing.T) {
	f := newFixture(t)

	payload := session.NewPayload("s4", "u1", "en", "", session.ModeSolo, "hello")
	body, _ := json.Marshal(payload)
	resp, err := http.Post(f.srv.URL+"/callbacks/translate", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST callback: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var decoded map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if decoded["sessionId"] != "s4" {
		t.Fatalf("error response should carry the session id, got %v", decoded)
	}

	if got := fetchResult(t, f, "s4"); got.ProcessingComplete {
		t.Fatal("store must not hold a result for a rejected session")
	}
}

func postCallback(t *testing.T, f *fixture, path string, payload session.Payload) map[string]any {
	t.Helper()

	body, _ := json.Marshal(payload)
	resp, err := http.Post(f.srv.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, path, raw)
	}
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
	return decoded
}

func TestStageCallbacksEchoStageOutput(t *testing.T) {
	f := newFixture(t)

	base := session.NewPayload("s7", "u1", "en", "es", session.ModeSolo, "hello")

	translated := postCallback(t, f, "/callbacks/translate", base)
	if translated["success"] != true || translated["sessionId"] != "s7" {
		t.Fatalf("unexpected translate response %v", translated)
	}
	if translated["translatedText"] != "hola" {
		t.Fatalf("translate response should echo the translation, got %v", translated)
	}

	synthesized := postCallback(t, f, "/callbacks/synthesize", base.WithTranslation("hola", "voice-es"))
	if synthesized["audioUrl"] != "https://cdn.example/clip.mp3" {
		t.Fatalf("synthesize response should echo the audio url, got %v", synthesized)
	}
	if duration, ok := synthesized["duration"].(float64); !ok || duration != 0.8 {
		t.Fatalf("synthesize response should echo the duration, got %v", synthesized)
	}

	identified := postCallback(t, f, "/callbacks/identity",
		base.WithTranslation("hola", "voice-es").WithSynthesis("https://cdn.example/clip.mp3", 0.8))
	if identified["voiceId"] != "voice-es" || identified["mode"] != "solo" {
		t.Fatalf("identity response should echo voice id and mode, got %v", identified)
	}
	if identified["audioUrl"] != "https://cdn.example/clip.mp3" {
		t.Fatalf("identity response should echo the audio url, got %v", identified)
	}
}

func TestResultMissAnswersIncompletePayload(t *testing.T) {
	f := newFixture(t)

	payload := fetchResult(t, f, "missing")
	if payload.SessionID != "missing" || payload.ProcessingComplete {
		t.Fatalf("unexpected miss payload %+v", payload)
	}
}

func TestResultPostThenGet(t *testing.T) {
	f := newFixture(t)

	stored := session.NewPayload("s5", "u1", "en", "es", session.ModeSolo, "hello")
	stored = stored.WithTranslation("hola", "voice-es")
	stored = stored.WithSynthesis("https://cdn.example/clip.mp3", 0.8)
	stored = stored.WithIdentity("voice-es")

	body, _ := json.Marshal(stored)
	resp, err := http.Post(f.srv.URL+"/result/s5", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /result: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	got := fetchResult(t, f, "s5")
	if !got.ProcessingComplete || got.TranslatedText != "hola" {
		t.Fatalf("unexpected stored payload %+v", got)
	}
}

func TestResultPostSessionMismatch(t *testing.T) {
	f := newFixture(t)

	payload := session.NewPayload("other", "u1", "en", "es", session.ModeSolo, "hello")
	body, _ := json.Marshal(payload)
	resp, err := http.Post(f.srv.URL+"/result/s6", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /result: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var decoded map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if decoded["status"] != "ok" {
		t.Fatalf("unexpected health body %v", decoded)
	}
}

func TestBearerAuth(t *testing.T) {
	f := newFixture(t, testsupport.WithAPIToken("secret"))

	resp, err := http.Get(f.srv.URL + "/result/s1")
	if err != nil {
		t.Fatalf("GET /result: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/result/s1", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /result with token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}
