// Package inbound holds what the three provider-specific inbound handlers
// share (§4.E): the header allow-list filter. Body reading, discriminator
// extraction, and signature verification differ enough per provider
// (§9 "Header filtering" explicitly assigns the filter to the handler, not
// the Router) that they stay in each provider's own handler.go.
package inbound

import (
	"net/http"
	"strings"
)

// FilterHeaders keeps only headers whose lowercased name has one of the
// given prefixes, or equals "content-type" exactly (§9 "Header filtering").
func FilterHeaders(in http.Header, prefixes ...string) http.Header {
	out := make(http.Header)
	for name, vals := range in {
		lower := strings.ToLower(name)
		if lower == "content-type" {
			out[name] = vals
			continue
		}
		for _, p := range prefixes {
			if strings.HasPrefix(lower, p) {
				out[name] = vals
				break
			}
		}
	}
	return out
}
