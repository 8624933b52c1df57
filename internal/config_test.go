package internal

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Normalize.ConfidenceThreshold != 80 {
		t.Errorf("threshold = %v, want 80", cfg.Normalize.ConfidenceThreshold)
	}
	if cfg.Cache.StalenessWindow() != 7*24*time.Hour {
		t.Errorf("staleness window = %v", cfg.Cache.StalenessWindow())
	}
}

func TestNormalizeConfigRejectsBadThreshold(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Normalize.ConfidenceThreshold = 150
	if err := cfg.Validate(); err == nil {
		t.Error("threshold above 100 should fail validation")
	}
}

func TestNormalizeConfigRejectsZeroWorkers(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Normalize.Workers = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero workers should fail validation")
	}
}

func TestRemoteConfigRequiresRepo(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Remote.Repo = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty repo should fail validation")
	}
}

func TestServeConfigRejectsBadPort(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Serve.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("port above 65535 should fail validation")
	}
	if cfg.Serve.Address() != ":70000" {
		t.Errorf("address = %q", cfg.Serve.Address())
	}
}

func TestRemoteTimeout(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Remote.Timeout() != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Remote.Timeout())
	}
}
