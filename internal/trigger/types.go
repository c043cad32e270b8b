package trigger

// GitHubConfig is what the GitHub parser extracts from one workflow node
// (§4.C). WebhookSecret is the per-workflow HMAC secret embedded in the
// workflow's staticData, if the engine has already chosen one; it feeds
// the fallback-upsert step of the refresh loop (§4.D.1 step 2), never the
// authoritative path.
type GitHubConfig struct {
	WebhookID     string
	WorkflowID    string
	WorkflowName  string
	Active        bool
	Owner         string
	Repository    string
	Events        []string
	WebhookSecret string
}

// JiraConfig is what the Jira parser extracts from one workflow node.
type JiraConfig struct {
	WebhookID    string
	WorkflowID   string
	WorkflowName string
	Active       bool
	Events       []string
}

// SlackConfig is what the Slack parser extracts from one workflow node.
type SlackConfig struct {
	WebhookID            string
	WorkflowID           string
	WorkflowName         string
	Active               bool
	EventType            string
	Channels             []string
	WatchWholeWorkspace  bool
}
