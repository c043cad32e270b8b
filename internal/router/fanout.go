package router

import (
	"context"
	"net/http"
	"sync"
)

// TargetKind distinguishes a production delivery from a test delivery.
type TargetKind string

const (
	Production TargetKind = "production"
	Test       TargetKind = "test"
)

// Forwarder is the subset of engineclient.Client that fan-out needs. Every
// caller in this module passes an *engineclient.Client.
type Forwarder interface {
	Forward(ctx context.Context, url string, body []byte, headers http.Header) (int, error)
}

// Job is one forward attempt: a URL to hit, the headers to send (already
// signed for GitHub, or the filtered inbound headers unchanged otherwise),
// and whether a secret was known at the time this job was built (GitHub's
// stale-credential bookkeeping; always true for Jira/Slack, which never
// re-sign).
type Job struct {
	WebhookID string
	Kind      TargetKind
	URL       string
	Headers   http.Header
	HadSecret bool
}

// Result is the outcome of one Job. Err is a transport error (no response
// obtained); a transport error does not set Status and must never be
// counted as a 401 by retry logic (§4.D.2 "Cancellation/errors during
// forward").
type Result struct {
	Job    Job
	Status int
	Err    error
}

// FanOut runs every job concurrently against fwd and waits for all of them
// to finish, matching the teacher's ticker+goroutine background-task style
// generalized to a one-shot parallel burst instead of a repeating loop.
func FanOut(ctx context.Context, fwd Forwarder, body []byte, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, j Job) {
			defer wg.Done()
			status, err := fwd.Forward(ctx, j.URL, body, j.Headers)
			results[i] = Result{Job: j, Status: status, Err: err}
		}(i, j)
	}
	wg.Wait()
	return results
}
