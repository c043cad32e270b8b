package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cedricziel/unihook/internal/engineclient"
	"github.com/cedricziel/unihook/internal/providers/github"
	"github.com/cedricziel/unihook/internal/providers/jira"
	"github.com/cedricziel/unihook/internal/providers/slack"
	"github.com/cedricziel/unihook/internal/router"
	"github.com/cedricziel/unihook/internal/store"
)

func newTestServer(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()
	s, err := store.Open(t.Context(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	engine := engineclient.New("http://engine.invalid", "key", nil, nil)
	cfg := router.Config{EngineBaseURL: "http://engine.invalid", ProductionPath: "webhook", TestPath: "webhook-test", RefreshInterval: time.Hour}

	ghRouter := github.New(s, engine, cfg, nil)
	jiraRouter := jira.New(s, engine, cfg, nil)
	slackRouter := slack.New(s, engine, cfg, nil)

	handler := New(s,
		Routers{GitHub: ghRouter, Jira: jiraRouter, Slack: slackRouter},
		Handlers{
			GitHub: github.NewHandler(ghRouter, "", nil),
			Jira:   jira.NewHandler(jiraRouter, nil),
			Slack:  slack.NewHandler(slackRouter, nil),
		},
		Impersonation{
			GitHub: github.NewImpersonation(s, nil),
			Jira:   jira.NewImpersonation(jiraRouter, nil),
		},
		nil,
	)
	return handler, s
}

func TestHealthReportsTriggerCounts(t *testing.T) {
	h, s := newTestServer(t)
	require.NoError(t, s.SyncGitHubTriggers(t.Context(), []store.GitHubTriggerSync{
		{WebhookID: "wh-1", WorkflowID: "w1", WorkflowName: "W", Active: true, Owner: "acme", Repository: "widgets", Events: []string{"push"}},
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "healthy", resp.Status)
	require.Equal(t, 1, resp.Triggers["github"])
	require.Equal(t, 0, resp.Triggers["jira"])
}

func TestReadyReportsStoreHealthy(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp readyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ready", resp.Status)
}

func TestReadyReportsUnhealthyAfterClose(t *testing.T) {
	h, s := newTestServer(t)
	s.Close()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
