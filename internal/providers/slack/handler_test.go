package slack

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cedricziel/unihook/internal/store"
)

func TestHandlerURLVerificationRespondsSynchronously(t *testing.T) {
	r, _ := newTestRouter(t, &mockEngine{}, "http://engine.invalid")
	h := NewHandler(r, nil)

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(`{"type":"url_verification","challenge":"abc123"}`))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "abc123", resp["challenge"])
}

func TestHandlerMissingEventTypeIsBadRequest(t *testing.T) {
	r, _ := newTestRouter(t, &mockEngine{}, "http://engine.invalid")
	h := NewHandler(r, nil)

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerMalformedBodyIsBadRequest(t *testing.T) {
	r, _ := newTestRouter(t, &mockEngine{}, "http://engine.invalid")
	h := NewHandler(r, nil)

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerDispatchesEventCallback(t *testing.T) {
	m := &mockEngine{}
	server := newMockEngineServer(m)
	defer server.Close()

	r, s := newTestRouter(t, m, server.URL)
	require.NoError(t, s.SyncSlackTriggers(t.Context(), []store.SlackTriggerSync{
		{WebhookID: "wh-1", WorkflowID: "w1", WorkflowName: "W", Active: true, EventType: "message", Channels: []string{"C123"}},
	}))
	h := NewHandler(r, nil)

	body := `{"type":"event_callback","event":{"type":"message","channel":"C123"}}`
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.forwards) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestHandlerTranslatesRawSlackEventTypeBeforeDispatch(t *testing.T) {
	m := &mockEngine{}
	server := newMockEngineServer(m)
	defer server.Close()

	r, s := newTestRouter(t, m, server.URL)
	// A trigger configured for n8n's "user_created" vocabulary must still
	// match a raw Slack "team_join" event (original_source/src/slack/models.rs
	// SlackEvent::to_n8n_event_type).
	require.NoError(t, s.SyncSlackTriggers(t.Context(), []store.SlackTriggerSync{
		{WebhookID: "wh-1", WorkflowID: "w1", WorkflowName: "W", Active: true, EventType: "user_created"},
	}))
	h := NewHandler(r, nil)

	body := `{"type":"event_callback","event":{"type":"team_join"}}`
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.forwards) == 2
	}, time.Second, 5*time.Millisecond, "team_join must be remapped to user_created and match the stored trigger")
}

func TestHandlerTranslatesMessageFileShareSubtype(t *testing.T) {
	m := &mockEngine{}
	server := newMockEngineServer(m)
	defer server.Close()

	r, s := newTestRouter(t, m, server.URL)
	require.NoError(t, s.SyncSlackTriggers(t.Context(), []store.SlackTriggerSync{
		{WebhookID: "wh-1", WorkflowID: "w1", WorkflowName: "W", Active: true, EventType: "file_shared", Channels: []string{"C123"}},
	}))
	h := NewHandler(r, nil)

	body := `{"type":"event_callback","event":{"type":"message","subtype":"file_share","channel":"C123"}}`
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.forwards) == 2
	}, time.Second, 5*time.Millisecond, "message+file_share must be remapped to file_shared")
}

func TestToN8NEventType(t *testing.T) {
	require.Equal(t, "message", toN8NEventType("message", ""))
	require.Equal(t, "file_shared", toN8NEventType("message", "file_share"))
	require.Equal(t, "user_created", toN8NEventType("team_join", ""))
	require.Equal(t, "reaction_added", toN8NEventType("reaction_added", ""))
	require.Equal(t, "app_mention", toN8NEventType("app_mention", ""))
}
