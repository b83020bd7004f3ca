package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/akshay-abraham/lyra/internal/chat"
	"github.com/akshay-abraham/lyra/internal/domain"
	"github.com/akshay-abraham/lyra/internal/store"
)

// userIDHeader carries the authenticated user id. Authentication itself is an
// upstream concern; the daemon trusts its reverse proxy.
const userIDHeader = "X-User-ID"

type sendMessageRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Content   string `json:"content"`
	Model     string `json:"model,omitempty"`
}

type sendMessageResponse struct {
	SessionID string          `json:"session_id"`
	Reply     *domain.Message `json:"reply"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.orchestrator.SendMessage(r.Context(), chat.SendInput{
		UserID:    r.Header.Get(userIDHeader),
		SessionID: req.SessionID,
		Subject:   req.Subject,
		Content:   req.Content,
		Model:     req.Model,
	})
	if err != nil {
		s.writeSendError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		SessionID: result.SessionID,
		Reply:     result.Reply,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	sessions, err := s.repo.ListSessions(r.Context(), userID)
	if err != nil {
		s.logger.Error("list sessions failed", zap.String("user", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list sessions")
		return
	}
	if sessions == nil {
		sessions = []*domain.ChatSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := s.repo.GetSession(r.Context(), sessionID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.logger.Error("get session failed", zap.String("session", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load session")
		return
	}
	if session.UserID != userID {
		writeError(w, http.StatusForbidden, "session belongs to another user")
		return
	}

	messages, err := s.repo.ListMessages(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("list messages failed", zap.String("session", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list messages")
		return
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) writeSendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrNoIdentity):
		writeError(w, http.StatusUnauthorized, "missing user identity")
	case errors.Is(err, chat.ErrNoContent), errors.Is(err, chat.ErrNoSubject):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrBusy):
		writeError(w, http.StatusConflict, "a message is already being processed")
	case errors.Is(err, chat.ErrForbidden):
		writeError(w, http.StatusForbidden, "session belongs to another user")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	default:
		s.logger.Error("send message failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not process message")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
