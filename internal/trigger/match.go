package trigger

// MatchesEvent reports whether inbound matches a trigger's stored event
// list: true if the wildcard "*" is present or inbound is present verbatim.
// An empty list matches nothing, not even the wildcard (§8 boundary
// behavior "Empty events array: matches nothing").
func MatchesEvent(events []string, inbound string) bool {
	if len(events) == 0 {
		return false
	}
	for _, e := range events {
		if e == "*" || e == inbound {
			return true
		}
	}
	return false
}

// channelLessEventTypes are the Slack event types permitted to match when
// the inbound event carries no channel (§4.D.2 "Event matching").
var channelLessEventTypes = map[string]bool{
	"user_created":    true,
	"channel_created": true,
	"any_event":       true,
}

// MatchesSlack reports whether a stored Slack trigger row matches an
// inbound event's type and channel.
func MatchesSlack(rowEventType string, rowWatchWholeWorkspace bool, rowChannels []string, inboundEventType string, inboundChannel string) bool {
	typeMatches := rowEventType == "any_event" || rowEventType == inboundEventType
	if !typeMatches {
		return false
	}

	if rowWatchWholeWorkspace {
		return true
	}
	if inboundChannel != "" {
		for _, c := range rowChannels {
			if c == inboundChannel {
				return true
			}
		}
		return false
	}
	return channelLessEventTypes[rowEventType]
}
