// Package trigger holds the pure, provider-agnostic pieces shared by the
// three per-provider parsers (§4.C): the resource-locator decoding helper
// (§9 "Resource-locator shape") and the parsed trigger-config types each
// parser produces before the Router persists them.
package trigger

// StringOrLocator accepts a parameter value that is either a plain string
// or a resource-locator object `{"value": "..."}`, preferring the object
// form when present, and returns "" if neither shape matches. Several
// engine parameters ("owner", "repository", "channelId") use this shape.
func StringOrLocator(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		if val, ok := t["value"].(string); ok {
			return val
		}
	}
	return ""
}

// StringSlice converts a loosely-typed JSON array (as decoded into
// map[string]interface{} parameters) into a []string, skipping any
// non-string element rather than failing the whole parse.
func StringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
