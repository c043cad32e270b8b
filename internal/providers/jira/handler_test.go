package jira

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cedricziel/unihook/internal/store"
)

func TestHandlerMissingWebhookEventIsBadRequest(t *testing.T) {
	r, _ := newTestRouter(t, &mockEngine{}, "http://engine.invalid")
	h := NewHandler(r, nil)

	req := httptest.NewRequest(http.MethodPost, "/jira/events", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerMalformedBodyIsBadRequest(t *testing.T) {
	r, _ := newTestRouter(t, &mockEngine{}, "http://engine.invalid")
	h := NewHandler(r, nil)

	req := httptest.NewRequest(http.MethodPost, "/jira/events", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerDispatchesWithQueryString(t *testing.T) {
	m := &mockEngine{}
	server := newMockEngineServer(m)
	defer server.Close()

	r, s := newTestRouter(t, m, server.URL)
	require.NoError(t, s.SyncJiraTriggers(t.Context(), []store.JiraTriggerSync{
		{WebhookID: "wh-1", WorkflowID: "w1", WorkflowName: "W", Active: true, Events: []string{"jira:issue_created"}},
	}))
	h := NewHandler(r, nil)

	req := httptest.NewRequest(http.MethodPost, "/jira/events?token=abc", strings.NewReader(`{"webhookEvent":"jira:issue_created"}`))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if len(m.forwards) != 2 {
			return false
		}
		for _, f := range m.forwards {
			if f.rawQuery != "token=abc" {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
}
