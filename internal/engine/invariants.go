package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
)

// CheckInvariants verifies the cross-references the rules must keep
// consistent and returns every violation found, joined.
func (g *Game) CheckInvariants() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	// Presence: each living character is listed once, in its own fief only.
	seen := make(map[ids.CharID]int)
	for _, f := range g.Fiefs() {
		for _, id := range f.Characters {
			seen[id]++
			c, ok := g.characters[id]
			switch {
			case !ok:
				bad("fief %s lists unknown %s", f.ID, id)
			case !c.Alive:
				bad("fief %s lists dead %s", f.ID, id)
			case c.Location != f.ID:
				bad("fief %s lists %s who is in %s", f.ID, id, c.Location)
			}
		}
	}
	for _, c := range g.Characters() {
		if c.Alive && seen[c.ID] != 1 {
			bad("%s is present %d times", c.ID, seen[c.ID])
		}
	}

	// Army leadership is mutual.
	for _, a := range g.Armies() {
		if a.Leader == "" {
			continue
		}
		if l, ok := g.characters[a.Leader]; !ok || l.Army != a.ID {
			bad("army %s leader %s does not lead it", a.ID, a.Leader)
		}
	}
	for _, c := range g.Characters() {
		if c.Army == "" {
			continue
		}
		if a, ok := g.armies[c.Army]; !ok || a.Leader != c.ID {
			bad("%s claims to lead %s", c.ID, c.Army)
		}
	}

	for _, p := range g.Players() {
		// Entourage flag and set agree; members are co-located with equal days.
		for _, id := range p.Player.Entourage {
			m, ok := g.characters[id]
			switch {
			case !ok || !m.IsDependent() || !m.Dependent.InEntourage:
				bad("%s entourage lists %s without the flag", p.ID, id)
			case m.Employer() != p.ID || !m.Alive:
				bad("%s entourage lists %s who does not serve", p.ID, id)
			case m.Location != p.Location:
				bad("%s entourage member %s is in %s", p.ID, id, m.Location)
			case m.Days != p.Days:
				bad("%s entourage member %s has %.1f days, player %.1f", p.ID, id, m.Days, p.Days)
			}
		}
		heirs := 0
		for _, id := range p.Player.Dependents {
			if d, ok := g.characters[id]; ok && d.IsHeir() {
				heirs++
			}
		}
		if heirs > 1 {
			bad("%s has %d heirs", p.ID, heirs)
		}
	}
	for _, c := range g.Characters() {
		if !c.IsDependent() || !c.Dependent.InEntourage {
			continue
		}
		emp, ok := g.characters[c.Dependent.Employer]
		if !ok || !emp.IsPlayer() || !slices.Contains(emp.Player.Entourage, c.ID) {
			bad("%s flagged in entourage of %s but not listed", c.ID, c.Dependent.Employer)
		}
	}

	// Days stay within the allowance.
	for _, c := range g.Characters() {
		if c.Alive && (c.Days < 0 || c.Days > c.DaysAllowance()+1e-9) {
			bad("%s has %.1f days, allowance %.1f", c.ID, c.Days, c.DaysAllowance())
		}
	}

	// Titles: holder and title list agree.
	holders := make(map[string]ids.CharID)
	for _, f := range g.fiefs {
		holders[string(f.ID)] = f.TitleHolder
	}
	for _, p := range g.provinces {
		holders[string(p.ID)] = p.TitleHolder
	}
	for _, k := range g.kingdoms {
		holders[string(k.ID)] = k.TitleHolder
	}
	for place, holder := range holders {
		if holder == "" {
			continue
		}
		c, ok := g.characters[holder]
		if !ok || !slices.Contains(c.Titles, place) {
			bad("%s title holder %s does not list it", place, holder)
		}
	}
	for _, c := range g.Characters() {
		for _, t := range c.Titles {
			if holders[t] != c.ID {
				bad("%s lists title %s held by %q", c.ID, t, holders[t])
			}
		}
	}

	// Captivity is mutual and the captive sits in its fief's gaol.
	for _, c := range g.Characters() {
		if c.Captor == "" {
			continue
		}
		captor, ok := g.characters[c.Captor]
		if !ok || !captor.IsPlayer() || !slices.Contains(captor.Player.Captives, c.ID) {
			bad("%s held by %s who does not list it", c.ID, c.Captor)
		}
		if f, ok := g.fiefs[c.Location]; !ok || !slices.Contains(f.Gaol, c.ID) {
			bad("%s is not in the gaol of %s", c.ID, c.Location)
		}
	}
	for _, p := range g.Players() {
		for _, id := range p.Player.Captives {
			if c, ok := g.characters[id]; !ok || c.Captor != p.ID {
				bad("%s lists captive %s it does not hold", p.ID, id)
			}
		}
	}
	for _, f := range g.Fiefs() {
		for _, id := range f.Gaol {
			if c, ok := g.characters[id]; !ok || c.Captor == "" || c.Location != f.ID {
				bad("gaol of %s holds %s who is not a captive there", f.ID, id)
			}
		}
	}

	// Owned places agree with the owner's lists.
	for _, f := range g.Fiefs() {
		if f.Owner == "" {
			continue
		}
		if o, ok := g.characters[f.Owner]; !ok || !o.IsPlayer() || !slices.Contains(o.Player.Fiefs, f.ID) {
			bad("fief %s owner %s does not list it", f.ID, f.Owner)
		}
	}
	for _, s := range g.Sieges() {
		if f, ok := g.fiefs[s.Fief]; !ok || f.Siege != s.ID {
			bad("siege %s not recorded on fief %s", s.ID, s.Fief)
		}
	}
	for _, a := range g.Armies() {
		if f, ok := g.fiefs[a.Location]; !ok || !slices.Contains(f.Armies, a.ID) {
			bad("army %s not listed in %s", a.ID, a.Location)
		}
	}
	return errors.Join(errs...)
}
