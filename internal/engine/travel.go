package engine

import (
	"math"
	"slices"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
)

// TravelResult reports the legs walked and those still queued.
type TravelResult struct {
	Moved     []ids.FiefID `json:"moved"`
	Remaining []ids.FiefID `json:"remaining"`
}

// Arrived reports whether the whole route was completed.
func (r TravelResult) Arrived() bool { return len(r.Remaining) == 0 }

func requireTraveller(c *character.Character) error {
	if err := requireFree(c); err != nil {
		return err
	}
	if c.IsDependent() && c.Dependent.InEntourage {
		return gameerr.New(gameerr.CodeTravelBlocked, "%s travels with the entourage", c.FullName())
	}
	return nil
}

// TravelTo queues the cheapest route to dest and walks as far as c's days allow.
func (g *Game) TravelTo(c *character.Character, dest ids.FiefID) (TravelResult, error) {
	if err := requireTraveller(c); err != nil {
		return TravelResult{}, err
	}
	if _, err := g.Fief(dest); err != nil {
		return TravelResult{}, err
	}
	if dest == c.Location {
		return TravelResult{}, gameerr.Invalid("already in %s", dest)
	}
	path, ok := g.graph.ShortestPath(c.Location, dest)
	if !ok {
		return TravelResult{}, gameerr.New(gameerr.CodeInvalidRoute, "no route from %s to %s", c.Location, dest)
	}
	c.Route = path
	return g.continueRoute(c), nil
}

// TakeThisRoute follows an explicit list of fiefs, each adjacent to the last.
func (g *Game) TakeThisRoute(c *character.Character, route []ids.FiefID) (TravelResult, error) {
	if err := requireTraveller(c); err != nil {
		return TravelResult{}, err
	}
	if len(route) == 0 || !g.graph.ValidRoute(c.Location, route) {
		return TravelResult{}, gameerr.New(gameerr.CodeInvalidRoute, "route is not a chain of neighbouring fiefs")
	}
	c.Route = slices.Clone(route)
	return g.continueRoute(c), nil
}

// legCost is the days c's party needs to enter next. An army slows its leader.
func (g *Game) legCost(c *character.Character, next ids.FiefID) (float64, bool) {
	cost, ok := g.graph.TravelCost(c.Location, next, g.clock.TravelModifier())
	if !ok {
		return 0, false
	}
	if a, led := g.armies[c.Army]; led && a.Leader == c.ID && a.TroopCount() > 0 {
		cost *= 1.25
	}
	return math.Round(cost*10) / 10, true
}

// continueRoute walks queued legs while c has the days for them. A leg that
// is no longer reachable drops the rest of the route.
func (g *Game) continueRoute(c *character.Character) TravelResult {
	var res TravelResult
	for len(c.Route) > 0 {
		next := c.Route[0]
		cost, ok := g.legCost(c, next)
		if !ok {
			c.Route = nil
			break
		}
		if c.Days < cost {
			break
		}
		g.moveParty(c, next)
		g.AdjustDays(c, cost)
		c.Route = c.Route[1:]
		res.Moved = append(res.Moved, next)
	}
	if len(c.Route) == 0 {
		c.Route = nil
	}
	res.Remaining = slices.Clone(c.Route)
	return res
}

// moveParty moves c, its entourage and any army it leads into fief to.
func (g *Game) moveParty(c *character.Character, to ids.FiefID) {
	c.InKeep = false
	g.place(c, to)
	if c.IsPlayer() {
		for _, id := range c.Player.Entourage {
			if m, ok := g.characters[id]; ok {
				m.InKeep = false
				g.place(m, to)
			}
		}
	}
	if a, ok := g.armies[c.Army]; ok && a.Leader == c.ID {
		g.moveArmy(a, to)
	}
}

// Camp spends days in place. A bailiff camping in its own fief counts
// the days as time spent running it.
func (g *Game) Camp(c *character.Character, days float64) error {
	if err := requireTraveller(c); err != nil {
		return err
	}
	if days <= 0 || math.IsNaN(days) {
		return gameerr.Invalid("days must be positive")
	}
	if err := requireDays(c, days); err != nil {
		return err
	}
	g.AdjustDays(c, days)
	if f, ok := g.fiefs[c.Location]; ok && f.Bailiff == c.ID {
		f.BailiffDays += days
	}
	c.Route = nil
	return nil
}

// EnterExitKeep moves c (and its entourage) into or out of the keep.
func (g *Game) EnterExitKeep(c *character.Character, enter bool) error {
	if err := requireTraveller(c); err != nil {
		return err
	}
	f, err := g.Fief(c.Location)
	if err != nil {
		return err
	}
	if enter {
		if f.IsBarred(c.ID) {
			return gameerr.New(gameerr.CodeBarred, "%s is barred from the keep of %s", c.FullName(), f.Name)
		}
		if f.Siege != "" && !g.defends(c, f.Owner) {
			return gameerr.New(gameerr.CodeUnderSiege, "the keep of %s is shut against besiegers", f.Name)
		}
	} else if f.Siege != "" && g.defends(c, f.Owner) {
		return gameerr.New(gameerr.CodeUnderSiege, "the keep of %s is surrounded", f.Name)
	}

	c.InKeep = enter
	if c.IsPlayer() {
		for _, id := range c.Player.Entourage {
			if m, ok := g.characters[id]; ok {
				m.InKeep = enter
			}
		}
	}
	return nil
}

// defends reports whether c is owner or serves owner.
func (g *Game) defends(c *character.Character, owner ids.CharID) bool {
	return owner != "" && (c.ID == owner || c.Employer() == owner)
}
