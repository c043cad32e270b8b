package github

import (
	"github.com/cedricziel/unihook/internal/engineclient"
	"github.com/cedricziel/unihook/internal/trigger"
)

// Sentinel node type this parser recognizes (§4.C).
const NodeType = "n8n-nodes-base.githubTrigger"

// ParseNode extracts a GitHubConfig from one workflow node, or false if the
// node isn't a GitHub trigger or carries no webhook id (unroutable without
// a correlation key).
func ParseNode(wf *engineclient.Workflow, node engineclient.WorkflowNode) (trigger.GitHubConfig, bool) {
	if node.Type != NodeType || node.WebhookID == "" {
		return trigger.GitHubConfig{}, false
	}

	cfg := trigger.GitHubConfig{
		WebhookID:    node.WebhookID,
		WorkflowID:   wf.ID,
		WorkflowName: wf.Name,
		Active:       wf.Active,
		Owner:        trigger.StringOrLocator(node.Parameters["owner"]),
		Repository:   trigger.StringOrLocator(node.Parameters["repository"]),
		Events:       trigger.StringSlice(node.Parameters["events"]),
	}

	if sd := wf.StaticDataFor(node.Name); sd != nil {
		if secret, ok := sd["webhookSecret"].(string); ok {
			cfg.WebhookSecret = secret
		}
	}

	return cfg, true
}

// ExtractAll applies ParseNode to every node of every workflow, active and
// inactive alike (§4.B "Per-provider extraction").
func ExtractAll(workflows []engineclient.Workflow) []trigger.GitHubConfig {
	var out []trigger.GitHubConfig
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
