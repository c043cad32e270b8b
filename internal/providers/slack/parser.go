package slack

import (
	"github.com/cedricziel/unihook/internal/engineclient"
	"github.com/cedricziel/unihook/internal/trigger"
)

// Sentinel node type this parser recognizes (§4.C).
const NodeType = "n8n-nodes-base.slackTrigger"

// defaultEventType is used when the node carries no `trigger` selection.
const defaultEventType = "any_event"

// ParseNode extracts a SlackConfig from one workflow node, or false if the
// node isn't a Slack trigger or carries no webhook id.
func ParseNode(wf *engineclient.Workflow, node engineclient.WorkflowNode) (trigger.SlackConfig, bool) {
	if node.Type != NodeType || node.WebhookID == "" {
		return trigger.SlackConfig{}, false
	}

	eventType := defaultEventType
	if vals := trigger.StringSlice(node.Parameters["trigger"]); len(vals) > 0 && vals[0] != "" {
		eventType = vals[0]
	}

	watchWorkspace, _ := node.Parameters["watchWorkspace"].(bool)

	var channels []string
	if !watchWorkspace {
		if channelID := trigger.StringOrLocator(node.Parameters["channelId"]); channelID != "" {
			channels = []string{channelID}
		}
	}

	return trigger.SlackConfig{
		WebhookID:           node.WebhookID,
		WorkflowID:          wf.ID,
		WorkflowName:        wf.Name,
		Active:              wf.Active,
		EventType:           eventType,
		Channels:            channels,
		WatchWholeWorkspace: watchWorkspace,
	}, true
}

// ExtractAll applies ParseNode to every node of every workflow.
func ExtractAll(workflows []engineclient.Workflow) []trigger.SlackConfig {
	var out []trigger.SlackConfig
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
