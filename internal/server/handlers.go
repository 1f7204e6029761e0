package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bridgit/internal/logging"
	"bridgit/internal/pipeline"
	"bridgit/internal/services"
	"bridgit/internal/session"
)

const maxUploadBytes = 32 << 20

// handleTranscribe accepts a multipart recording plus session form fields and
// runs the intake stage.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "parse multipart form: "+err.Error(), "")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing audio file", "")
		return
	}
	defer file.Close()

	req := pipeline.IntakeRequest{
		SessionID:  r.FormValue("sessionId"),
		UserID:     r.FormValue("userId"),
		SourceLang: r.FormValue("sourceLang"),
		TargetLang: r.FormValue("targetLang"),
		Mode:       r.FormValue("mode"),
		Audio:      file,
		Filename:   header.Filename,
	}

	payload, err := s.pipe.Intake(r.Context(), req)
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error(), req.SessionID)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"transcription": payload.Text,
		"sessionId":     payload.SessionID,
	})
}

type stageHandler func(r *http.Request, payload session.Payload) (session.Payload, error)

// stageResponse builds the success body for one callback. Each stage echoes
// the fields it added so transport logs capture the stage output.
type stageResponse func(next session.Payload) map[string]any

// handleCallback decodes the accumulated payload and runs one stage handler.
// Error responses carry the session id so redelivered messages stay
// attributable in transport logs.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request, run stageHandler, respond stageResponse) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var payload session.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "decode payload: "+err.Error(), "")
		return
	}

	next, err := run(r, payload)
	if err != nil {
		status := services.HTTPStatus(err)
		logging.WithContext(r.Context(), s.log()).Warn("stage callback failed",
			logging.String(logging.FieldSessionID, payload.SessionID),
			logging.Int("status", status),
			logging.Error(err),
		)
		s.writeError(w, status, err.Error(), payload.SessionID)
		return
	}

	s.writeJSON(w, http.StatusOK, respond(next))
}

func (s *Server) handleTranslateCallback(w http.ResponseWriter, r *http.Request) {
	s.handleCallback(w, r, func(r *http.Request, payload session.Payload) (session.Payload, error) {
		return s.pipe.HandleTranslate(r.Context(), payload)
	}, func(next session.Payload) map[string]any {
		return map[string]any{
			"success":        true,
			"sessionId":      next.SessionID,
			"translatedText": next.TranslatedText,
		}
	})
}

func (s *Server) handleSynthesizeCallback(w http.ResponseWriter, r *http.Request) {
	s.handleCallback(w, r, func(r *http.Request, payload session.Payload) (session.Payload, error) {
		return s.pipe.HandleSynthesize(r.Context(), payload)
	}, func(next session.Payload) map[string]any {
		return map[string]any{
			"success":   true,
			"sessionId": next.SessionID,
			"audioUrl":  next.AudioURL,
			"duration":  next.Duration,
		}
	})
}

func (s *Server) handleIdentityCallback(w http.ResponseWriter, r *http.Request) {
	s.handleCallback(w, r, func(r *http.Request, payload session.Payload) (session.Payload, error) {
		return s.pipe.HandleIdentity(r.Context(), payload)
	}, func(next session.Payload) map[string]any {
		return map[string]any{
			"success":   true,
			"sessionId": next.SessionID,
			"voiceId":   next.VoiceID,
			"audioUrl":  next.AudioURL,
			"mode":      string(next.Mode),
		}
	})
}

// handleResult serves GET (client polling) and POST (internal store write)
// for one session's result.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/result/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		s.writeError(w, http.StatusNotFound, "unknown result path", "")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleResultGet(w, r, sessionID)
	case http.MethodPost:
		s.handleResultPost(w, r, sessionID)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", sessionID)
	}
}

// A miss answers an incomplete payload rather than 404: callers cannot tell
// a session still in flight from one already evicted.
func (s *Server) handleResultGet(w http.ResponseWriter, r *http.Request, sessionID string) {
	if s.store == nil {
		s.writeJSON(w, http.StatusOK, session.Payload{SessionID: sessionID})
		return
	}

	entry, err := s.store.Get(r.Context(), sessionID)
	if errors.Is(err, services.ErrNotFound) {
		s.writeJSON(w, http.StatusOK, session.Payload{SessionID: sessionID})
		return
	}
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error(), sessionID)
		return
	}
	s.writeJSON(w, http.StatusOK, entry.Payload)
}

func (s *Server) handleResultPost(w http.ResponseWriter, r *http.Request, sessionID string) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "result store not configured", sessionID)
		return
	}

	var payload session.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "decode payload: "+err.Error(), sessionID)
		return
	}
	if payload.SessionID == "" {
		payload.SessionID = sessionID
	}
	if payload.SessionID != sessionID {
		s.writeError(w, http.StatusBadRequest, "session id mismatch", sessionID)
		return
	}

	if err := s.store.Put(r.Context(), payload); err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error(), sessionID)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "sessionId": sessionID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	if s.store != nil {
		if err := s.store.Healthy(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
