package goAuthClient

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got %v", err)
	}
	if cfg.BaseURL != "http://localhost:5000" {
		t.Fatalf("unexpected default BaseURL %q", cfg.BaseURL)
	}
	if cfg.Guard.NetworkPolicy != FailClosed {
		t.Fatalf("expected FailClosed by default, got %v", cfg.Guard.NetworkPolicy)
	}
	if cfg.HTTP.Timeout != 0 {
		t.Fatalf("expected no client timeout by default, got %v", cfg.HTTP.Timeout)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "https base url valid",
			mutate:    func(c *Config) { c.BaseURL = "https://api.example.com/v1" },
			wantValid: true,
		},
		{
			name:      "empty base url invalid",
			mutate:    func(c *Config) { c.BaseURL = "  " },
			wantValid: false,
		},
		{
			name:      "relative base url invalid",
			mutate:    func(c *Config) { c.BaseURL = "/api" },
			wantValid: false,
		},
		{
			name:      "ftp base url invalid",
			mutate:    func(c *Config) { c.BaseURL = "ftp://example.com" },
			wantValid: false,
		},
		{
			name:      "base url with query invalid",
			mutate:    func(c *Config) { c.BaseURL = "http://example.com?x=1" },
			wantValid: false,
		},
		{
			name:      "blank user agent invalid",
			mutate:    func(c *Config) { c.HTTP.UserAgent = "" },
			wantValid: false,
		},
		{
			name:      "positive timeout valid",
			mutate:    func(c *Config) { c.HTTP.Timeout = 5 * time.Second },
			wantValid: true,
		},
		{
			name:      "negative timeout invalid",
			mutate:    func(c *Config) { c.HTTP.Timeout = -time.Second },
			wantValid: false,
		},
		{
			name:      "storage name with separator invalid",
			mutate:    func(c *Config) { c.Session.StorageName = "a/b" },
			wantValid: false,
		},
		{
			name:      "storage name empty invalid",
			mutate:    func(c *Config) { c.Session.StorageName = "" },
			wantValid: false,
		},
		{
			name:      "fail open valid",
			mutate:    func(c *Config) { c.Guard.NetworkPolicy = FailOpen },
			wantValid: true,
		},
		{
			name:      "unknown network policy invalid",
			mutate:    func(c *Config) { c.Guard.NetworkPolicy = NetworkPolicy(9) },
			wantValid: false,
		},
		{
			name:      "login path without slash invalid",
			mutate:    func(c *Config) { c.Guard.LoginPath = "login" },
			wantValid: false,
		},
		{
			name: "async events valid",
			mutate: func(c *Config) {
				c.Events.Async = true
				c.Events.DropIfFull = true
			},
			wantValid: true,
		},
		{
			name: "async events zero buffer invalid",
			mutate: func(c *Config) {
				c.Events.Async = true
				c.Events.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name:      "drop if full without async invalid",
			mutate:    func(c *Config) { c.Events.DropIfFull = true },
			wantValid: false,
		},
		{
			name:      "latency without metrics invalid",
			mutate:    func(c *Config) { c.Metrics.EnableLatencyHistograms = true },
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config")
			}
		})
	}
}
