// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the fiefsim server.
type Config struct {
	DBPath   string `env:"DB_PATH" envDefault:"data/fiefsim.db"`
	APIPort  int    `env:"API_PORT" envDefault:"8080"`
	AdminKey string `env:"ADMIN_KEY"` // Bearer token for admin endpoints. Empty = disabled.

	WorldSeed int64 `env:"WORLD_SEED" envDefault:"42"`
	MapRadius int   `env:"MAP_RADIUS" envDefault:"6"`
	StartYear int   `env:"START_YEAR" envDefault:"1194"`

	Kingdoms         int     `env:"KINGDOMS" envDefault:"2"`
	FiefsPerProvince int     `env:"FIEFS_PER_PROVINCE" envDefault:"4"`
	NPCsPerFief      int     `env:"NPCS_PER_FIEF" envDefault:"2"`
	ProvinceTaxPct   float64 `env:"PROVINCE_TAX_PCT" envDefault:"5"`

	// SeasonInterval is the real time between season ticks at speed 1.
	// Zero leaves the clock to the admin season endpoint.
	SeasonInterval   time.Duration `env:"SEASON_INTERVAL" envDefault:"0s"`
	SaveEverySeasons int           `env:"SAVE_EVERY_SEASONS" envDefault:"1"`

	Players    []string `env:"PLAYERS" envSeparator:","`     // user or user:FirstName, seeded on fresh worlds
	AdminUsers []string `env:"ADMIN_USERS" envSeparator:","` // Logins allowed to act on anything

	VictoryShare float64 `env:"VICTORY_SHARE" envDefault:"0.6"`
	VictoryYear  int     `env:"VICTORY_YEAR"`

	RateLimit   float64  `env:"RATE_LIMIT" envDefault:"5"` // Actions per second per user
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.APIPort <= 0 || c.APIPort > 65535:
		return fmt.Errorf("API_PORT %d out of range", c.APIPort)
	case c.MapRadius < 2:
		return fmt.Errorf("MAP_RADIUS %d is too small", c.MapRadius)
	case c.Kingdoms < 1 || c.FiefsPerProvince < 1:
		return fmt.Errorf("KINGDOMS and FIEFS_PER_PROVINCE must be at least 1")
	case c.NPCsPerFief < 0:
		return fmt.Errorf("NPCS_PER_FIEF must not be negative")
	case c.ProvinceTaxPct < 0 || c.ProvinceTaxPct > 100:
		return fmt.Errorf("PROVINCE_TAX_PCT %v must be within [0, 100]", c.ProvinceTaxPct)
	case c.SeasonInterval < 0:
		return fmt.Errorf("SEASON_INTERVAL must not be negative")
	case c.SaveEverySeasons < 1:
		return fmt.Errorf("SAVE_EVERY_SEASONS must be at least 1")
	case c.VictoryShare < 0 || c.VictoryShare > 1:
		return fmt.Errorf("VICTORY_SHARE %v must be within [0, 1]", c.VictoryShare)
	case c.VictoryYear != 0 && c.VictoryYear <= c.StartYear:
		return fmt.Errorf("VICTORY_YEAR %d must come after START_YEAR %d", c.VictoryYear, c.StartYear)
	case c.RateLimit <= 0:
		return fmt.Errorf("RATE_LIMIT must be positive")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	for _, p := range c.Players {
		if user, _ := splitPlayer(p); user == "" {
			return fmt.Errorf("PLAYERS entry %q has no user", p)
		}
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}

// Seat is a human player to seat on a freshly generated world.
type Seat struct {
	User      string
	FirstName string
}

// Seats parses the PLAYERS list.
func (c Config) Seats() []Seat {
	out := make([]Seat, 0, len(c.Players))
	for _, p := range c.Players {
		user, name := splitPlayer(p)
		out = append(out, Seat{User: user, FirstName: name})
	}
	return out
}

// IsAdmin reports whether user is listed in ADMIN_USERS.
func (c Config) IsAdmin(user string) bool {
	for _, a := range c.AdminUsers {
		if strings.TrimSpace(a) == user {
			return true
		}
	}
	return false
}

func splitPlayer(s string) (user, name string) {
	user, name, _ = strings.Cut(strings.TrimSpace(s), ":")
	return strings.TrimSpace(user), strings.TrimSpace(name)
}
