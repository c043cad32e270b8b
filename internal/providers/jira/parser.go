package jira

import (
	"github.com/cedricziel/unihook/internal/engineclient"
	"github.com/cedricziel/unihook/internal/trigger"
)

// Sentinel node type this parser recognizes (§4.C).
const NodeType = "n8n-nodes-base.jiraTrigger"

// ParseNode extracts a JiraConfig from one workflow node, or false if the
// node isn't a Jira trigger or carries no webhook id.
func ParseNode(wf *engineclient.Workflow, node engineclient.WorkflowNode) (trigger.JiraConfig, bool) {
	if node.Type != NodeType || node.WebhookID == "" {
		return trigger.JiraConfig{}, false
	}

	return trigger.JiraConfig{
		WebhookID:    node.WebhookID,
		WorkflowID:   wf.ID,
		WorkflowName: wf.Name,
		Active:       wf.Active,
		Events:       trigger.StringSlice(node.Parameters["events"]),
	}, true
}

// ExtractAll applies ParseNode to every node of every workflow.
func ExtractAll(workflows []engineclient.Workflow) []trigger.JiraConfig {
	var out []trigger.JiraConfig
	for i := range workflows {
		wf := &workflows[i]
		for _, node := range wf.Nodes {
			if cfg, ok := ParseNode(wf, node); ok {
				out = append(out, cfg)
			}
		}
	}
	return out
}
