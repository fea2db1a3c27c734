package engine

import (
	"fmt"
	"log/slog"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/entropy"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
)

// CheckDeath rolls c's death chance. isBirth applies when a mother is
// checked on giving birth; stillbornMother when the child did not survive.
func (g *Game) CheckDeath(c *character.Character, isBirth, stillbornMother bool) bool {
	if !c.Alive {
		return false
	}
	p := c.DeathProbability(g.RatingContext(c), isBirth, stillbornMother)
	return entropy.Chance(g.rng, p)
}

// ProcessDeath kills c and settles everything that depended on it. Returns
// false when c was already dead, in which case nothing changes.
func (g *Game) ProcessDeath(c *character.Character, circumstance string) bool {
	if !c.Alive {
		return false
	}
	c.Alive = false
	slog.Info("character died", "character", c.ID, "name", c.FullName(), "circumstance", circumstance)

	if c.IsCaptive() {
		g.closeRansom(c)
		g.freeCaptive(c)
	}

	location := c.Location
	g.unplace(c)
	c.InKeep = false
	c.Route = nil
	c.Days = 0

	g.resignLeadership(c)
	g.dissolveMarriage(c)

	for _, f := range g.fiefs {
		if f.Bailiff == c.ID {
			f.Bailiff = ""
		}
	}

	employer := g.characters[c.Employer()]
	if employer != nil && employer.IsPlayer() {
		g.leaveEntourage(employer, c)
		employer.Player.Dependents = ids.Remove(employer.Player.Dependents, c.ID)
	}

	g.record(journal.TypeDeath, location, fmt.Sprintf("%s died (%s)", c.FullName(), circumstance),
		persona(c, journal.RoleSubject))

	switch c.Kind {
	case character.RolePlayer:
		if g.inTick {
			g.pendingEstates = append(g.pendingEstates, c.ID)
		} else {
			g.settleEstate(c)
		}

	case character.RoleDependent:
		if c.IsDependent() {
			c.Dependent.IsHeir = false
			c.Dependent.InEntourage = false
		}
		// Family titles go back to the head; an employee's to the employer.
		g.revertTitles(c, employer)
		if !c.HasFamily() {
			g.respawn(c)
		}
	}
	return true
}

// dissolveMarriage ends c's marriage and engagement and any pending
// wedding or birth tied to c.
func (g *Game) dissolveMarriage(c *character.Character) {
	if s, ok := g.characters[c.Spouse]; ok && s.Spouse == c.ID {
		s.Spouse = ""
	}
	c.Spouse = ""
	if f, ok := g.characters[c.Fiance]; ok && f.Fiance == c.ID {
		f.Fiance = ""
	}
	c.Fiance = ""
	g.journal.CancelScheduled(c.ID, journal.TypeMarriage)
	if c.Pregnant {
		g.journal.CancelScheduled(c.ID, journal.TypeBirth)
		c.Pregnant = false
	}
}

// respawn replaces a dead unattached dependent with a fresh one so the pool
// of hireable characters does not run dry. A fief speaking the deceased's
// language is preferred.
func (g *Game) respawn(dead *character.Character) *character.Character {
	var matches []ids.FiefID
	for _, f := range g.Fiefs() {
		if f.Language == dead.Language {
			matches = append(matches, f.ID)
		}
	}
	location := dead.Location
	if len(matches) > 0 {
		location = matches[g.rng.Intn(len(matches))]
	} else if _, ok := g.fiefs[location]; !ok {
		fiefs := g.Fiefs()
		if len(fiefs) == 0 {
			return nil
		}
		location = fiefs[0].ID
	}

	nationality := dead.Nationality
	if k := g.kingdomOf(location); k != nil {
		nationality = k.Nationality
	}
	c := g.spawner.SpawnDependent(character.Origin{
		Location:    location,
		Language:    dead.Language,
		Nationality: nationality,
		Now:         g.clock.Now,
	})
	g.addCharacter(c)
	slog.Debug("dependent respawned", "replaces", dead.ID, "character", c.ID, "fief", location)
	return c
}
