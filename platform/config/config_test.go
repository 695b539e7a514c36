package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Vazio é tratado como ausente; garante um ambiente previsível
	for _, key := range []string{
		"SERVER_HOST", "PORT", "DATABASE_URL", "WA_AUTH_DIR",
		"SESSION_IDLE_TIMEOUT", "AUTH_REJECT_COOLDOWN", "APP_ENV",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %s, want 8080", cfg.Server.Port)
	}
	if cfg.WhatsApp.AuthDir != "./wa-auth" {
		t.Errorf("authDir = %s", cfg.WhatsApp.AuthDir)
	}
	if cfg.Session.IdleTimeout != 5*time.Minute {
		t.Errorf("idleTimeout = %s, want 5m", cfg.Session.IdleTimeout)
	}
	if cfg.Session.AuthRejectCooldown != 15*time.Minute {
		t.Errorf("authRejectCooldown = %s, want 15m", cfg.Session.AuthRejectCooldown)
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Errorf("environment = %s, want development", cfg.Environment)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_AUTO_MIGRATE", "false")
	t.Setenv("SESSION_IDLE_TIMEOUT", "90s")
	t.Setenv("AUTH_REJECT_COOLDOWN", "30m")
	t.Setenv("SESSION_START_RATE", "12")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.GetServerAddress(); got != "127.0.0.1:9090" {
		t.Errorf("address = %s, want 127.0.0.1:9090", got)
	}
	if cfg.Database.AutoMigrate {
		t.Error("autoMigrate should be disabled")
	}
	if cfg.Session.IdleTimeout != 90*time.Second {
		t.Errorf("idleTimeout = %s, want 90s", cfg.Session.IdleTimeout)
	}
	if cfg.Session.AuthRejectCooldown != 30*time.Minute {
		t.Errorf("authRejectCooldown = %s, want 30m", cfg.Session.AuthRejectCooldown)
	}
	if cfg.Session.StartRatePerMinute != 12 {
		t.Errorf("startRate = %d, want 12", cfg.Session.StartRatePerMinute)
	}
	if !cfg.IsProduction() {
		t.Error("environment should be production")
	}
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("SESSION_IDLE_TIMEOUT", "not-a-duration")
	t.Setenv("SESSION_START_RATE", "many")
	t.Setenv("DATABASE_AUTO_MIGRATE", "yep")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Session.IdleTimeout != 5*time.Minute {
		t.Errorf("idleTimeout = %s, want default 5m", cfg.Session.IdleTimeout)
	}
	if cfg.Session.StartRatePerMinute != 6 {
		t.Errorf("startRate = %d, want default 6", cfg.Session.StartRatePerMinute)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("autoMigrate should fall back to default true")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{URL: "postgres://localhost/zapcast"},
			WhatsApp: WhatsAppConfig{AuthDir: "./wa-auth"},
			Session:  SessionConfig{IdleTimeout: time.Minute},
		}
	}

	if err := base().validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database url", func(c *Config) { c.Database.URL = "" }},
		{"missing auth dir", func(c *Config) { c.WhatsApp.AuthDir = "" }},
		{"zero idle timeout", func(c *Config) { c.Session.IdleTimeout = 0 }},
		{"negative idle timeout", func(c *Config) { c.Session.IdleTimeout = -time.Second }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
