package engineclient

import "encoding/json"

// Workflow mirrors the shape of a workflow returned by the engine's
// workflow-management API (§4.B). Only the fields the trigger parsers and
// the sync loop need are modeled; everything else the engine returns is
// ignored by `encoding/json`'s default tolerant unmarshaling.
type Workflow struct {
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	Active     bool                       `json:"active"`
	Nodes      []WorkflowNode             `json:"nodes"`
	StaticData map[string]json.RawMessage `json:"staticData,omitempty"`
}

// WorkflowNode is one node inside a workflow's graph.
type WorkflowNode struct {
	Type       string                 `json:"type"`
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
	WebhookID  string                 `json:"webhookId,omitempty"`
}

// StaticDataFor returns the per-node static data bucket keyed the way the
// engine stores it: "node:<NodeName>".
func (w *Workflow) StaticDataFor(nodeName string) map[string]interface{} {
	if w.StaticData == nil {
		return nil
	}
	raw, ok := w.StaticData["node:"+nodeName]
	if !ok {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// workflowListResponse is the envelope returned by GET /api/v1/workflows.
type workflowListResponse struct {
	Data       []Workflow `json:"data"`
	NextCursor string     `json:"nextCursor"`
}
