package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akshay-abraham/lyra/internal/config"
	"github.com/akshay-abraham/lyra/internal/domain"
)

// newTestServer builds a daemon against an in-memory store and a provider
// without credentials, so send requests take the apology path instead of
// reaching the network.
func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")

	cfg := &config.Config{
		Providers: map[string]config.ProviderConfig{
			"openai": {Type: "openai", BaseURL: "https://api.openai.example"},
		},
		Models: map[string]config.ModelConfig{
			"gpt-4o-mini": {Provider: "openai", Model: "gpt-4o-mini", Default: true},
		},
		Store:  config.StoreConfig{Path: ":memory:"},
		Chat:   config.ChatConfig{MaxTitleLength: 40},
		Server: config.ServerConfig{Addr: ":0", MetricsEnabled: true},
	}
	require.NoError(t, cfg.Validate())

	s, err := NewServer(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.repo.Close() })
	return s, s.routes()
}

func doJSON(t *testing.T, h http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	s.cfg.Server.MetricsEnabled = false
	rec = doJSON(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessageRequiresIdentity(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/api/chat/messages", "",
		`{"subject":"Maths","content":"hi"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendMessageValidatesInput(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/chat/messages", "u1", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/chat/messages", "u1", `{"content":"hi"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "subject")

	rec = doJSON(t, h, http.MethodPost, "/api/chat/messages", "u1",
		`{"session_id":"missing","content":"hi"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessageApologyFlow(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/chat/messages", "u1",
		`{"subject":"Maths","content":"What is a prime number?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sendMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.Reply)
	require.Equal(t, domain.RoleAssistant, resp.Reply.Role)
	require.Contains(t, resp.Reply.Content, "Sorry")

	// The apology is part of the transcript.
	rec = doJSON(t, h, http.MethodGet, "/api/chat/sessions/"+resp.SessionID+"/messages", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var messages []*domain.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
	require.Equal(t, domain.RoleUser, messages[0].Role)
	require.Equal(t, "What is a prime number?", messages[0].Content)
}

func TestListSessions(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/chat/sessions", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/chat/sessions", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]\n", rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/api/chat/messages", "u1",
		`{"subject":"Physics","content":"Why is the sky blue?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/chat/sessions", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []*domain.ChatSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	require.Equal(t, "Physics", sessions[0].Subject)
	require.Equal(t, "Why is the sky blue?", sessions[0].Title)
}

func TestListMessagesOwnership(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/chat/messages", "u1",
		`{"subject":"Maths","content":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sendMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = doJSON(t, h, http.MethodGet, "/api/chat/sessions/"+resp.SessionID+"/messages", "intruder", "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/chat/sessions/nope/messages", "u1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
