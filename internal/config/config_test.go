package config

import (
	"strings"
	"testing"
)

func TestValidateRequiresSigningKeyOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production", TokenTTLMinutes: 60}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing signing key in production")
	}

	cfg.Env = "development"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("development without key should validate: %v", err)
	}
}

func TestValidateRejectsShortKey(t *testing.T) {
	cfg := &Config{Env: "production", AuthSigningKey: "short", TokenTTLMinutes: 60}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Fatalf("expected short-key error, got %v", err)
	}
}

func TestValidateRejectsNonPositiveTTL(t *testing.T) {
	cfg := &Config{Env: "development", TokenTTLMinutes: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero TTL")
	}
}

func TestModeHelpers(t *testing.T) {
	if !(&Config{Env: "development"}).IsDev() {
		t.Fatal("IsDev")
	}
	if !(&Config{Env: "production"}).IsProduction() {
		t.Fatal("IsProduction")
	}
}
