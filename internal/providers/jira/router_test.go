package jira

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/cedricziel/unihook/internal/engineclient"
	"github.com/cedricziel/unihook/internal/router"
	"github.com/cedricziel/unihook/internal/store"
)

type recordedForward struct {
	rawQuery string
}

type mockEngine struct {
	mu        sync.Mutex
	forwards  []recordedForward
	workflows []engineclient.Workflow
}

func newMockEngineServer(m *mockEngine) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/workflows" {
			m.mu.Lock()
			resp := map[string]interface{}{"data": m.workflows, "nextCursor": ""}
			m.mu.Unlock()
			json.NewEncoder(w).Encode(resp)
			return
		}
		m.mu.Lock()
		m.forwards = append(m.forwards, recordedForward{rawQuery: r.URL.RawQuery})
		m.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
}

func newTestRouter(t *testing.T, m *mockEngine, serverURL string) (*Router, *store.Store) {
	t.Helper()
	s, err := store.Open(t.Context(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	engine := engineclient.New(serverURL, "test-key", nil, nil)
	cfg := router.Config{EngineBaseURL: serverURL, ProductionPath: "webhook", TestPath: "webhook-test", RefreshInterval: time.Hour}
	return New(s, engine, cfg, nil), s
}

func TestDispatchAppendsRawQueryToEachURL(t *testing.T) {
	m := &mockEngine{}
	server := newMockEngineServer(m)
	defer server.Close()

	r, s := newTestRouter(t, m, server.URL)
	require.NoError(t, s.SyncJiraTriggers(t.Context(), []store.JiraTriggerSync{
		{WebhookID: "wh-1", WorkflowID: "w1", WorkflowName: "W", Active: true, Events: []string{"jira:issue_created"}},
	}))

	r.Dispatch(t.Context(), "jira:issue_created", "token=abc", []byte(`{}`), http.Header{})

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.forwards, 2)
	for _, f := range m.forwards {
		require.Equal(t, "token=abc", f.rawQuery)
	}
}

func TestDispatchInactiveOnlyForwardsTest(t *testing.T) {
	m := &mockEngine{}
	server := newMockEngineServer(m)
	defer server.Close()

	r, s := newTestRouter(t, m, server.URL)
	require.NoError(t, s.SyncJiraTriggers(t.Context(), []store.JiraTriggerSync{
		{WebhookID: "wh-1", WorkflowID: "w1", WorkflowName: "W", Active: false, Events: []string{"jira:issue_created"}},
	}))

	r.Dispatch(t.Context(), "jira:issue_created", "", []byte(`{}`), http.Header{})

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.forwards, 1)
}

func TestDispatchNoMatchIsNoop(t *testing.T) {
	m := &mockEngine{}
	server := newMockEngineServer(m)
	defer server.Close()

	r, s := newTestRouter(t, m, server.URL)
	require.NoError(t, s.SyncJiraTriggers(t.Context(), []store.JiraTriggerSync{
		{WebhookID: "wh-1", WorkflowID: "w1", WorkflowName: "W", Active: true, Events: []string{"jira:issue_updated"}},
	}))

	r.Dispatch(t.Context(), "jira:issue_created", "", []byte(`{}`), http.Header{})

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Empty(t, m.forwards)
}

func TestImpersonationCreateWebhookTriggersRefresh(t *testing.T) {
	m := &mockEngine{
		workflows: []engineclient.Workflow{
			{
				ID: "w1", Name: "Workflow", Active: true,
				Nodes: []engineclient.WorkflowNode{
					{Type: NodeType, Name: "Jira Trigger", WebhookID: "wh-9", Parameters: map[string]interface{}{
						"events": []interface{}{"jira:issue_created"},
					}},
				},
			},
		},
	}
	server := newMockEngineServer(m)
	defer server.Close()

	r, s := newTestRouter(t, m, server.URL)
	im := NewImpersonation(r, nil)

	reqBody := `{"url":"https://example.invalid/jira/events","events":["jira:issue_created"]}`
	req := httptest.NewRequest(http.MethodPost, "/rest/webhooks/1.0/webhook", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	mux := chi.NewRouter()
	im.Mount(mux)
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Eventually(t, func() bool {
		n, err := s.CountJiraTriggers(t.Context())
		return err == nil && n == 1
	}, time.Second, 5*time.Millisecond, "expected the async refresh triggered by webhook creation to sync the new trigger")
}
