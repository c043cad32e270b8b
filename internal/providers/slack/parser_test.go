package slack

import (
	"testing"

	"github.com/cedricziel/unihook/internal/engineclient"
)

func TestParseNodeDefaultsEventType(t *testing.T) {
	wf := &engineclient.Workflow{ID: "w1", Name: "W", Active: true}
	node := engineclient.WorkflowNode{Type: NodeType, WebhookID: "hook-1", Parameters: map[string]interface{}{}}

	cfg, ok := ParseNode(wf, node)
	if !ok {
		t.Fatal("expected node to parse")
	}
	if cfg.EventType != defaultEventType {
		t.Errorf("event type = %q, want %q", cfg.EventType, defaultEventType)
	}
	if len(cfg.Channels) != 0 {
		t.Errorf("expected no channels, got %v", cfg.Channels)
	}
}

func TestParseNodeWatchWorkspaceSkipsChannel(t *testing.T) {
	wf := &engineclient.Workflow{ID: "w1", Name: "W"}
	node := engineclient.WorkflowNode{
		Type:      NodeType,
		WebhookID: "hook-1",
		Parameters: map[string]interface{}{
			"trigger":        []interface{}{"message"},
			"watchWorkspace": true,
			"channelId":      map[string]interface{}{"value": "C123"},
		},
	}

	cfg, ok := ParseNode(wf, node)
	if !ok {
		t.Fatal("expected node to parse")
	}
	if !cfg.WatchWholeWorkspace {
		t.Error("expected watch_whole_workspace to be true")
	}
	if len(cfg.Channels) != 0 {
		t.Errorf("expected no channels when watching whole workspace, got %v", cfg.Channels)
	}
}

func TestParseNodeSingleChannel(t *testing.T) {
	wf := &engineclient.Workflow{ID: "w1", Name: "W"}
	node := engineclient.WorkflowNode{
		Type:      NodeType,
		WebhookID: "hook-1",
		Parameters: map[string]interface{}{
			"trigger":   []interface{}{"message"},
			"channelId": map[string]interface{}{"value": "C123"},
		},
	}

	cfg, ok := ParseNode(wf, node)
	if !ok {
		t.Fatal("expected node to parse")
	}
	if cfg.EventType != "message" {
		t.Errorf("event type = %q", cfg.EventType)
	}
	if len(cfg.Channels) != 1 || cfg.Channels[0] != "C123" {
		t.Errorf("channels = %v, want [C123]", cfg.Channels)
	}
}
