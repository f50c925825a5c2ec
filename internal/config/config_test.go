package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Addr() != "0.0.0.0:3001" {
		t.Errorf("addr = %q", cfg.App.Addr())
	}
	if cfg.App.RequestTimeout() != 30*time.Second {
		t.Errorf("request timeout = %v", cfg.App.RequestTimeout())
	}
	if cfg.Classifier.Provider != "keyword" {
		t.Errorf("classifier provider = %q", cfg.Classifier.Provider)
	}
	if cfg.Dedup.Strategy != "substring" {
		t.Errorf("dedup strategy = %q", cfg.Dedup.Strategy)
	}
	if !cfg.Simulation.Live {
		t.Error("simulation should default to live")
	}
	if cfg.Hub.SubscriberBuffer != 64 {
		t.Errorf("hub buffer = %d", cfg.Hub.SubscriberBuffer)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("SIM_LIVE", "false")
	t.Setenv("SIM_ENGAGEMENT_INTERVAL", "250ms")
	t.Setenv("DEDUP_STRATEGY", "geo")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Port != "8080" {
		t.Errorf("port = %q", cfg.App.Port)
	}
	if cfg.Simulation.Live {
		t.Error("SIM_LIVE=false not applied")
	}
	if cfg.Simulation.EngagementInterval != 250*time.Millisecond {
		t.Errorf("engagement interval = %v", cfg.Simulation.EngagementInterval)
	}
	if cfg.Dedup.Strategy != "geo" {
		t.Errorf("dedup strategy = %q", cfg.Dedup.Strategy)
	}
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid REDIS_DB")
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "soon")
	t.Setenv("SIM_ENGAGEMENT_CHANCE", "often")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.RequestTimeoutSeconds != 30 {
		t.Errorf("timeout seconds = %d, want default 30", cfg.App.RequestTimeoutSeconds)
	}
	if cfg.Simulation.EngagementChance != 0.40 {
		t.Errorf("engagement chance = %v, want default 0.40", cfg.Simulation.EngagementChance)
	}
}
