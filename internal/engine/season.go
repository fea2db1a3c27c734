package engine

import (
	"log/slog"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/clock"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
)

// defaultArmyDays is the time a leaderless army has each season.
const defaultArmyDays = 90.0

// SeasonSummary reports what one season tick did.
type SeasonSummary struct {
	Date            clock.Date `json:"date"` // The date after the tick
	Deaths          int        `json:"deaths"`
	Successions     int        `json:"successions"`
	ArmiesDisbanded int        `json:"armies_disbanded"`
	SiegesEnded     int        `json:"sieges_ended"`
	EventsProcessed int        `json:"events_processed"`
	Winner          ids.CharID `json:"winner,omitempty"`
}

// SeasonUpdate advances the world one season. Callers hold the world lock
// (see Exclusive); nothing else may run while it does.
func (g *Game) SeasonUpdate() (SeasonSummary, error) {
	if g.winner != "" {
		return SeasonSummary{Date: g.clock.Now, Winner: g.winner}, gameerr.New(gameerr.CodeGameOver, "the game has been won by %s", g.winner)
	}
	var sum SeasonSummary
	g.inTick = true
	defer func() { g.inTick = false }()

	// 1. Landholdings.
	g.updateLandholdings()

	// 2–3. Characters. Dependents first so that a player's entourage has
	// been refreshed before the player's days are mirrored onto it.
	var dependents, players []*character.Character
	for _, c := range g.Characters() {
		if !c.Alive {
			continue
		}
		if c.IsPlayer() {
			players = append(players, c)
		} else {
			dependents = append(dependents, c)
		}
	}
	for _, d := range dependents {
		if g.ageCharacter(d) {
			sum.Deaths++
			continue
		}
		g.SetDays(d, d.DaysAllowance())
		switch {
		case d.IsCaptive():
		case d.Employer() == "" && !d.HasFamily():
			g.wander(d)
		case !d.Dependent.InEntourage:
			g.continueRoute(d)
		}
	}
	for _, p := range players {
		if !p.IsPlayer() {
			continue
		}
		if g.ageCharacter(p) {
			sum.Deaths++
			continue
		}
		g.SetDays(p, g.seasonDays(p))
		if !p.IsCaptive() {
			g.continueRoute(p)
		}
	}

	// 4. Heirs step into the estates of players who died above.
	sum.Successions = g.commitEstates()

	// 5. Armies.
	for _, a := range g.Armies() {
		days := defaultArmyDays
		if leader, ok := g.characters[a.Leader]; ok {
			days = leader.Days
		}
		if a.UpdateSeason(days) {
			g.disbandArmy(a)
			sum.ArmiesDisbanded++
		}
	}

	// 6. Sieges.
	for _, s := range g.Sieges() {
		a, ok := g.armies[s.BesiegingArmy]
		present := ok && a.Location == s.Fief
		if s.UpdateSeason(present) {
			g.endSiege(s, "the siege petered out")
			sum.SiegesEnded++
		}
	}

	// 7. Clock.
	sum.Date = g.clock.Advance()

	// 8. Victory, then whatever was scheduled for the new season.
	if w := g.checkVictory(); w != nil {
		sum.Winner = w.ID
	} else {
		sum.EventsProcessed = g.processScheduled()
		// A mother who dies in childbirth may have been a player.
		sum.Successions += g.commitEstates()
	}

	slog.Info("season advanced", "date", sum.Date, "deaths", sum.Deaths, "successions", sum.Successions,
		"armies_disbanded", sum.ArmiesDisbanded, "sieges_ended", sum.SiegesEnded, "events", sum.EventsProcessed)
	return sum, nil
}

// ageCharacter decays c's ailments and rolls for death. Returns true if c died.
func (g *Game) ageCharacter(c *character.Character) bool {
	c.UpdateAilments()
	if g.CheckDeath(c, false, false) {
		return g.ProcessDeath(c, "natural causes")
	}
	return false
}

// wander moves an unattached character one hex in a random direction.
func (g *Game) wander(c *character.Character) {
	next := g.graph.Neighbors(c.Location)
	if len(next) == 0 {
		return
	}
	to := next[g.rng.Intn(len(next))]
	cost, ok := g.legCost(c, to)
	if !ok || c.Days < cost {
		return
	}
	c.InKeep = false
	g.place(c, to)
	g.AdjustDays(c, cost)
}

// processScheduled resolves the events that have fallen due.
func (g *Game) processScheduled() int {
	due := g.journal.Due(g.clock.Now)
	for _, e := range due {
		switch e.Type {
		case journal.TypeBirth:
			g.giveBirth(e)
		case journal.TypeMarriage:
			g.wed(e)
		case journal.TypeRansom:
			g.lapseRansom(e)
		default:
			slog.Warn("unknown scheduled event", "entry", e.ID, "type", e.Type)
		}
	}
	return len(due)
}
