package slack

// toN8NEventType maps a raw Slack Events API event type (plus, for
// "message" events, its subtype) to the event vocabulary n8n's Slack
// Trigger node filters on, grounded on the original SlackEvent::
// to_n8n_event_type mapping (original_source/src/slack/models.rs). This
// runs before MatchesSlack is ever consulted: a stored trigger's
// event_type is always an n8n name ("user_created", "file_shared", ...),
// never a raw Slack one ("team_join"), so dispatch must translate first.
func toN8NEventType(rawType, subtype string) string {
	switch rawType {
	case "message":
		if subtype == "file_share" {
			return "file_shared"
		}
		return "message"
	case "team_join":
		return "user_created"
	default:
		return rawType
	}
}
