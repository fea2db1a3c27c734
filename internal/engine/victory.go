package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
)

// Standing is one player's share of the realm.
type Standing struct {
	Player   *character.Character
	Fiefs    int
	Share    float64 // Fraction of all fiefs
	Treasury float64 // Across every owned fief
}

// Standings ranks the living players by land held, then by wealth.
func (g *Game) Standings() []Standing {
	total := len(g.fiefs)
	var out []Standing
	for _, p := range g.Players() {
		s := Standing{Player: p, Fiefs: len(p.Player.Fiefs)}
		for _, id := range p.Player.Fiefs {
			if f, ok := g.fiefs[id]; ok {
				s.Treasury += f.Treasury
			}
		}
		if total > 0 {
			s.Share = float64(s.Fiefs) / float64(total)
		}
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(a, b Standing) int {
		switch {
		case ahead(a, b):
			return -1
		case ahead(b, a):
			return 1
		}
		return 0
	})
	return out
}

func ahead(a, b Standing) bool {
	if a.Fiefs != b.Fiefs {
		return a.Fiefs > b.Fiefs
	}
	return a.Treasury > b.Treasury
}

// checkVictory declares a winner once a player holds the victory share of
// all fiefs, or when the final year arrives and someone leads outright.
func (g *Game) checkVictory() *character.Character {
	if g.winner != "" {
		return g.characters[g.winner]
	}
	standings := g.Standings()
	if len(standings) == 0 {
		return nil
	}
	lead := standings[0]
	var reason string
	switch {
	case g.victoryShare > 0 && lead.Share >= g.victoryShare:
		reason = fmt.Sprintf("holds %.0f%% of the realm", lead.Share*100)
	case g.victoryYear > 0 && g.clock.Now.Year >= g.victoryYear:
		if len(standings) > 1 && !ahead(lead, standings[1]) {
			return nil
		}
		reason = fmt.Sprintf("is the greatest landholder in %d", g.clock.Now.Year)
	default:
		return nil
	}

	g.winner = lead.Player.ID
	slog.Info("game won", "player", lead.Player.ID, "fiefs", lead.Fiefs, "share", lead.Share)
	g.record(journal.TypeVictory, lead.Player.Location, fmt.Sprintf("%s %s and wins the game", lead.Player.FullName(), reason),
		persona(lead.Player, journal.RoleSubject))
	return lead.Player
}
