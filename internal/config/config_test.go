package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != 8080 || cfg.DBPath != "data/fiefsim.db" || cfg.SeasonInterval != 0 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if l, err := cfg.Level(); err != nil || l != slog.LevelInfo {
		t.Fatalf("Level() = %v, %v, want info", l, err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_PORT", "9000")
	t.Setenv("SEASON_INTERVAL", "90s")
	t.Setenv("PLAYERS", "alice:Edmund, bob")
	t.Setenv("ADMIN_USERS", "root,ops")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != 9000 || cfg.SeasonInterval != 90*time.Second {
		t.Fatalf("port=%d interval=%v, want 9000 90s", cfg.APIPort, cfg.SeasonInterval)
	}
	seats := cfg.Seats()
	if len(seats) != 2 || seats[0] != (Seat{User: "alice", FirstName: "Edmund"}) || seats[1] != (Seat{User: "bob"}) {
		t.Fatalf("seats = %+v", seats)
	}
	if !cfg.IsAdmin("ops") || cfg.IsAdmin("alice") {
		t.Fatalf("admin users = %v", cfg.AdminUsers)
	}
	if l, _ := cfg.Level(); l != slog.LevelDebug {
		t.Fatalf("level = %v, want debug", l)
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	t.Setenv("API_PORT", "eighty")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("Load err = %v, want parse env error", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			APIPort: 80, MapRadius: 6, StartYear: 1194, Kingdoms: 2, FiefsPerProvince: 4,
			SaveEverySeasons: 1, VictoryShare: 0.6, RateLimit: 5, LogLevel: "info",
		}
	}
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"port", func(c *Config) { c.APIPort = 70000 }, false},
		{"radius", func(c *Config) { c.MapRadius = 1 }, false},
		{"kingdoms", func(c *Config) { c.Kingdoms = 0 }, false},
		{"tax", func(c *Config) { c.ProvinceTaxPct = 120 }, false},
		{"interval", func(c *Config) { c.SeasonInterval = -time.Second }, false},
		{"save cadence", func(c *Config) { c.SaveEverySeasons = 0 }, false},
		{"share", func(c *Config) { c.VictoryShare = 1.5 }, false},
		{"victory year", func(c *Config) { c.VictoryYear = 1190 }, false},
		{"rate", func(c *Config) { c.RateLimit = 0 }, false},
		{"level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"player", func(c *Config) { c.Players = []string{":Edmund"} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok %v", err, tt.ok)
			}
		})
	}
}
