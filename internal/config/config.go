// Package config loads environment-sourced configuration the way
// cmd/server/main.go in the teacher binds viper: an env prefix, a handful
// of BindEnv aliases for backward-compatible bare names, and SetDefault
// for every optional key.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every value from the "Configuration" table of the spec.
type Config struct {
	EngineBaseURL      string
	EngineAPIKey       string
	ListenAddr         string
	RefreshInterval    time.Duration
	ProductionPath     string
	TestPath           string
	GitHubSharedSecret string
	DBPath             string
}

// Load reads configuration from the environment (and an optional config
// file in the working directory), returning an error instead of calling
// log.Fatal so the caller controls the process exit code (§6 Exit codes).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.unihook")
	v.AddConfigPath("/etc/unihook")

	v.SetEnvPrefix("UNIHOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare-name aliases for operators coming from n8n-adjacent tooling.
	v.BindEnv("engine.base_url", "ENGINE_API_URL")
	v.BindEnv("engine.api_key", "ENGINE_API_KEY")
	v.BindEnv("server.listen_addr", "LISTEN_ADDR")
	v.BindEnv("db.path", "DB_PATH")

	v.SetDefault("engine.base_url", "http://localhost:5678")
	v.SetDefault("server.listen_addr", "0.0.0.0:3000")
	v.SetDefault("refresh.interval_seconds", 60)
	v.SetDefault("webhook.production_path", "webhook")
	v.SetDefault("webhook.test_path", "webhook-test")
	v.SetDefault("github.shared_secret", "")
	v.SetDefault("db.path", "unihook.db")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	apiKey := v.GetString("engine.api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("engine API key is required (set UNIHOOK_ENGINE_API_KEY or ENGINE_API_KEY)")
	}

	return &Config{
		EngineBaseURL:      v.GetString("engine.base_url"),
		EngineAPIKey:       apiKey,
		ListenAddr:         v.GetString("server.listen_addr"),
		RefreshInterval:    time.Duration(v.GetInt("refresh.interval_seconds")) * time.Second,
		ProductionPath:     v.GetString("webhook.production_path"),
		TestPath:           v.GetString("webhook.test_path"),
		GitHubSharedSecret: v.GetString("github.shared_secret"),
		DBPath:             v.GetString("db.path"),
	}, nil
}
