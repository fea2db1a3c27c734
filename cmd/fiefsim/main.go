// Command fiefsim runs the feudal realm: a seasonal clock, the action API
// and a SQLite save of the whole world.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/api"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/config"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/dispatch"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/engine"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/persistence"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/world"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fiefsim failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Load or Generate World ────────────────────────────────────────
	g, err := loadOrBuild(cfg, db)
	if err != nil {
		return err
	}
	g.Exclusive(func() {
		slog.Info("world ready",
			"date", g.Now(),
			"fiefs", len(g.Fiefs()),
			"characters", len(g.Characters()),
			"players", len(g.Players()),
		)
	})

	// ── Season Engine ─────────────────────────────────────────────────
	eng := engine.NewEngine(g, cfg.SeasonInterval)
	eng.OnSeason = func(sum engine.SeasonSummary) {
		slog.Info("season complete", "date", sum.Date, "deaths", sum.Deaths, "successions", sum.Successions, "events", sum.EventsProcessed)
		if sum.Winner != "" || eng.Seasons()%uint64(cfg.SaveEverySeasons) == 0 {
			save(g, db, "season")
		}
	}
	if cfg.SeasonInterval == 0 {
		slog.Info("no SEASON_INTERVAL set, seasons advance only through the admin endpoint")
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("ADMIN_KEY not set, admin endpoints will be disabled")
	}
	srv := &api.Server{
		Game:        g,
		Eng:         eng,
		Dispatch:    dispatch.New(g, eng, cfg.IsAdmin),
		DB:          db,
		Port:        cfg.APIPort,
		AdminKey:    cfg.AdminKey,
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     api.NewRateLimiter(cfg.RateLimit, max(1, int(2*cfg.RateLimit))),
	}

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return eng.Run(ctx) })
	eg.Go(func() error { return srv.Run(ctx) })
	slog.Info("fiefsim is running", "api", fmt.Sprintf("http://localhost:%d/api/v1/status", cfg.APIPort))

	err = eg.Wait()

	// Final save on shutdown.
	save(g, db, "final")
	return err
}

// loadOrBuild restores the saved world, or generates and saves a new one.
func loadOrBuild(cfg config.Config, db *persistence.DB) (*engine.Game, error) {
	opts := engine.Options{
		StartYear:    cfg.StartYear,
		VictoryShare: cfg.VictoryShare,
		VictoryYear:  cfg.VictoryYear,
	}

	st, err := db.LoadWorldState()
	switch {
	case err == nil:
		slog.Info("found saved world state, loading", "date", st.Now)
		g, err := engine.Load(opts, st)
		if err != nil {
			return nil, fmt.Errorf("restore world: %w", err)
		}
		if err := g.CheckInvariants(); err != nil {
			slog.Warn("saved world breaks an invariant", "error", err)
		}
		return g, nil
	case !errors.Is(err, persistence.ErrNoWorld):
		return nil, err
	}

	slog.Info("no saved state found, generating new world", "seed", cfg.WorldSeed, "radius", cfg.MapRadius)
	gen := world.DefaultGenConfig()
	gen.Radius, gen.Seed = cfg.MapRadius, cfg.WorldSeed
	layout := world.PlaceFiefs(world.Generate(gen), cfg.WorldSeed, cfg.FiefsPerProvince, cfg.Kingdoms)

	var players []engine.PlayerSeed
	for _, seat := range cfg.Seats() {
		players = append(players, engine.PlayerSeed{User: seat.User, FirstName: seat.FirstName})
	}
	g, err := engine.Build(opts, engine.Setup{
		Layout:         layout,
		Players:        players,
		NPCsPerFief:    cfg.NPCsPerFief,
		ProvinceTaxPct: cfg.ProvinceTaxPct,
	})
	if err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}
	save(g, db, "initial")
	return g, nil
}

// save writes the whole world. The snapshot shares records with the live
// game, so it is taken and written under the world lock.
func save(g *engine.Game, db *persistence.DB, why string) {
	var err error
	g.Exclusive(func() {
		err = db.SaveWorldState(g.Snapshot())
	})
	if err != nil {
		slog.Error("save failed", "kind", why, "error", err)
		return
	}
	slog.Debug("world saved", "kind", why)
}
