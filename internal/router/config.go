package router

import "time"

// Config is the immutable configuration every per-provider Router holds
// (§4.D "Router owns ... configuration"): shared across all three, since
// the engine base URL, path segments, and refresh period are process-wide
// values rather than per-provider ones.
type Config struct {
	EngineBaseURL   string
	ProductionPath  string
	TestPath        string
	RefreshInterval time.Duration
}
