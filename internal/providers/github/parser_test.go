package github

import (
	"encoding/json"
	"testing"

	"github.com/cedricziel/unihook/internal/engineclient"
)

func TestParseNodeRejectsWrongTypeOrMissingWebhookID(t *testing.T) {
	wf := &engineclient.Workflow{ID: "w1", Name: "W"}

	if _, ok := ParseNode(wf, engineclient.WorkflowNode{Type: "other", WebhookID: "h1"}); ok {
		t.Fatal("expected rejection for non-matching node type")
	}
	if _, ok := ParseNode(wf, engineclient.WorkflowNode{Type: NodeType}); ok {
		t.Fatal("expected rejection for missing webhook id")
	}
}

func TestParseNodeResourceLocatorShapes(t *testing.T) {
	wf := &engineclient.Workflow{ID: "w1", Name: "W", Active: true}

	node := engineclient.WorkflowNode{
		Type:      NodeType,
		Name:      "GitHub Trigger",
		WebhookID: "hook-1",
		Parameters: map[string]interface{}{
			"owner":      "plain-owner",
			"repository": map[string]interface{}{"value": "located-repo"},
			"events":     []interface{}{"push", "*"},
		},
	}

	cfg, ok := ParseNode(wf, node)
	if !ok {
		t.Fatal("expected node to parse")
	}
	if cfg.Owner != "plain-owner" {
		t.Errorf("owner = %q, want plain-owner", cfg.Owner)
	}
	if cfg.Repository != "located-repo" {
		t.Errorf("repository = %q, want located-repo", cfg.Repository)
	}
	if len(cfg.Events) != 2 {
		t.Errorf("events = %v", cfg.Events)
	}
	if cfg.WebhookSecret != "" {
		t.Errorf("webhook secret should be empty without staticData, got %q", cfg.WebhookSecret)
	}
}

func TestParseNodeExtractsStaticDataSecret(t *testing.T) {
	staticData, err := json.Marshal(map[string]interface{}{"webhookSecret": "s3cr3t"})
	if err != nil {
		t.Fatal(err)
	}
	wf := &engineclient.Workflow{
		ID:   "w1",
		Name: "W",
		StaticData: map[string]json.RawMessage{
			"node:GitHub Trigger": staticData,
		},
	}

	node := engineclient.WorkflowNode{Type: NodeType, Name: "GitHub Trigger", WebhookID: "hook-1"}
	cfg, ok := ParseNode(wf, node)
	if !ok {
		t.Fatal("expected node to parse")
	}
	if cfg.WebhookSecret != "s3cr3t" {
		t.Errorf("webhook secret = %q, want s3cr3t", cfg.WebhookSecret)
	}
}

func TestExtractAllCoversActiveAndInactive(t *testing.T) {
	workflows := []engineclient.Workflow{
		{
			ID: "w1", Name: "Active", Active: true,
			Nodes: []engineclient.WorkflowNode{{Type: NodeType, Name: "T", WebhookID: "h1"}},
		},
		{
			ID: "w2", Name: "Inactive", Active: false,
			Nodes: []engineclient.WorkflowNode{{Type: NodeType, Name: "T", WebhookID: "h2"}},
		},
		{
			ID: "w3", Name: "Unrelated",
			Nodes: []engineclient.WorkflowNode{{Type: "something-else", Name: "T", WebhookID: "h3"}},
		},
	}

	cfgs := ExtractAll(workflows)
	if len(cfgs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(cfgs))
	}
}
