// Package router holds the pieces every per-provider Router (§4.D) shares:
// production/test URL construction and concurrent fan-out. Event matching,
// the refresh loop, and the GitHub retry protocol stay in each provider's
// own router.go, since those differ enough per provider that a shared
// abstraction would obscure more than it saves — the same judgment call the
// teacher makes by giving each node type its own plugin rather than a
// generic "trigger" implementation (internal/plugin/trigger_webhook.go vs
// trigger_schedule.go).
package router

import "strings"

// BuildURL builds "{base}/{path}/{webhookID}/webhook" (§4.D.2 step 4). The
// same shape is used for both the production URL and the test URL; callers
// pass the production or test path segment from Router configuration.
func BuildURL(base, path, webhookID string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Trim(path, "/") + "/" + webhookID + "/webhook"
}

// AppendQuery joins rawQuery onto url with "?" or "&" as appropriate,
// leaving url unchanged if rawQuery is empty (Jira's extra URL-construction
// rule in §4.D.2 step 4).
func AppendQuery(url, rawQuery string) string {
	if rawQuery == "" {
		return url
	}
	if strings.Contains(url, "?") {
		return url + "&" + rawQuery
	}
	return url + "?" + rawQuery
}
