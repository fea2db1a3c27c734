package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
)

// Engine advances a game one season at a time on a real-time schedule.
type Engine struct {
	Game     *Game
	Interval time.Duration // Real time per season at speed 1; 0 means manual ticks only

	// OnSeason runs after every completed season, outside the world lock.
	OnSeason func(SeasonSummary)

	mu      sync.Mutex
	speed   float64 // 1.0 = Interval per season, 0 = paused
	seasons uint64  // Seasons run by this engine
}

// NewEngine creates an engine at normal speed.
func NewEngine(g *Game, interval time.Duration) *Engine {
	return &Engine{Game: g, Interval: interval, speed: 1}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Zero or less pauses the loop.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	e.speed = max(0, speed)
	e.mu.Unlock()
	slog.Info("engine speed changed", "speed", speed)
}

// Seasons returns how many seasons this engine has run.
func (e *Engine) Seasons() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seasons
}

// Step runs one season tick under the world lock.
func (e *Engine) Step() (SeasonSummary, error) {
	var (
		sum SeasonSummary
		err error
	)
	e.Game.Exclusive(func() {
		sum, err = e.Game.SeasonUpdate()
	})
	if err != nil {
		return sum, err
	}
	e.mu.Lock()
	e.seasons++
	e.mu.Unlock()
	if e.OnSeason != nil {
		e.OnSeason(sum)
	}
	return sum, nil
}

// wait returns how long to sleep before the next season, or 0 while paused.
func (e *Engine) wait() time.Duration {
	speed := e.Speed()
	if speed <= 0 || e.Interval <= 0 {
		return 0
	}
	return time.Duration(float64(e.Interval) / speed)
}

// Run advances seasons until ctx is cancelled or the game is won.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("season engine started", "interval", e.Interval, "speed", e.Speed())
	defer slog.Info("season engine stopped", "seasons", e.Seasons())

	for {
		d := e.wait()
		paused := d == 0
		if paused {
			d = 100 * time.Millisecond
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
		if paused {
			continue
		}

		if _, err := e.Step(); err != nil {
			if gameerr.HasCode(err, gameerr.CodeGameOver) {
				slog.Info("game over, no further seasons")
				return nil
			}
			return err
		}
	}
}
