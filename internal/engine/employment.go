package engine

import (
	"fmt"
	"math"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

// ── Days ───────────────────────────────────────────────────────────────

// AdjustDays spends days from c's allowance, never going below zero.
// A player's entourage and any army c leads are kept in step.
func (g *Game) AdjustDays(c *character.Character, spent float64) {
	if spent == 0 {
		return
	}
	g.SetDays(c, c.Days-spent)
}

// SetDays assigns c's remaining days and mirrors them onto the entourage
// and led army.
func (g *Game) SetDays(c *character.Character, days float64) {
	days = math.Max(0, days)
	c.Days = days
	if c.IsPlayer() {
		for _, id := range c.Player.Entourage {
			if m, ok := g.characters[id]; ok {
				m.Days = days
			}
		}
	}
	if a, ok := g.armies[c.Army]; ok && a.Leader == c.ID {
		a.Days = days
	}
}

// seasonDays is the allowance a player starts a season with: the slowest
// member of the travelling party sets the pace.
func (g *Game) seasonDays(p *character.Character) float64 {
	days := p.DaysAllowance()
	if p.IsPlayer() {
		for _, id := range p.Player.Entourage {
			if m, ok := g.characters[id]; ok {
				days = math.Min(days, m.DaysAllowance())
			}
		}
	}
	return days
}

// ── Hiring ─────────────────────────────────────────────────────────────

// MinimumSalary returns the lowest offer d would accept from p.
func (g *Game) MinimumSalary(p, d *character.Character) float64 {
	var employerStature, current float64
	if emp, ok := g.characters[d.Employer()]; ok {
		employerStature = g.Stature(emp)
		current = d.Dependent.Salary
	}
	return d.Salary(g.RatingContext(d), g.Stature(p), employerStature, current)
}

// Hire employs d for p at an annual salary of offer. A dependent employed
// elsewhere is released by the previous employer first.
func (g *Game) Hire(p, d *character.Character, offer float64) error {
	if err := requirePlayer(p); err != nil {
		return err
	}
	if err := requireFree(d); err != nil {
		return err
	}
	if !d.IsDependent() {
		return gameerr.New(gameerr.CodeNotEligible, "%s cannot be hired", d.FullName())
	}
	if d.HasFamily() {
		return gameerr.New(gameerr.CodeFamilyMember, "%s is a family member", d.FullName())
	}
	if d.Employer() == p.ID {
		return gameerr.New(gameerr.CodeNotEligible, "%s already works for %s", d.FullName(), p.FullName())
	}
	if offer <= 0 || math.IsNaN(offer) || math.IsInf(offer, 0) {
		return gameerr.New(gameerr.CodeInvalidAmount, "salary offer must be positive")
	}
	if err := requireColocated(p, d); err != nil {
		return err
	}
	if _, err := g.homeFief(p); err != nil {
		return err
	}

	minimum := g.MinimumSalary(p, d)
	if d.Dependent.LastOffers == nil {
		d.Dependent.LastOffers = make(map[ids.CharID]float64)
	}
	d.Dependent.LastOffers[p.ID] = offer
	if offer < minimum {
		return gameerr.New(gameerr.CodeSalaryTooLow, "%s rejects %.0f", d.FullName(), offer)
	}

	if prev, ok := g.characters[d.Employer()]; ok && prev.IsPlayer() {
		g.dismiss(prev, d)
	}
	d.Dependent.Employer = p.ID
	d.Dependent.Salary = offer
	p.Player.Dependents = ids.Add(p.Player.Dependents, d.ID)
	clear(d.Dependent.LastOffers)

	g.record(journal.TypeHire, p.Location, fmt.Sprintf("%s entered the service of %s", d.FullName(), p.FullName()),
		persona(p, journal.RoleHead), persona(d, journal.RoleSubject))
	return nil
}

// Fire dismisses an employee. Family members cannot be fired.
func (g *Game) Fire(p, d *character.Character) error {
	if err := requirePlayer(p); err != nil {
		return err
	}
	if d.Employer() != p.ID {
		return gameerr.New(gameerr.CodeNotEmployee, "%s does not work for %s", d.FullName(), p.FullName())
	}
	if IsFamilyOf(d, p) {
		return gameerr.New(gameerr.CodeFamilyMember, "%s is a family member", d.FullName())
	}
	g.dismiss(p, d)
	g.record(journal.TypeFire, p.Location, fmt.Sprintf("%s dismissed %s", p.FullName(), d.FullName()),
		persona(p, journal.RoleHead), persona(d, journal.RoleSubject))
	return nil
}

// dismiss cuts every tie between employer p and dependent d: roster,
// entourage, bailiff posts, army command, granted titles and pending travel.
func (g *Game) dismiss(p, d *character.Character) {
	g.leaveEntourage(p, d)
	p.Player.Dependents = ids.Remove(p.Player.Dependents, d.ID)
	for _, fid := range p.Player.Fiefs {
		if f, ok := g.fiefs[fid]; ok && f.Bailiff == d.ID {
			f.Bailiff = ""
		}
	}
	if a, ok := g.armies[d.Army]; ok && a.Owner == p.ID {
		g.resignLeadership(d)
	}
	g.revertTitles(d, p)
	d.Route = nil
	if d.IsDependent() {
		d.Dependent.Employer = ""
		d.Dependent.Salary = 0
		d.Dependent.IsHeir = false
	}
}

// revertTitles hands every title d holds to to (or clears them when to is nil).
func (g *Game) revertTitles(d, to *character.Character) {
	for _, t := range d.Titles {
		var holder ids.CharID
		if to != nil && to.Alive {
			holder = to.ID
			to.AddTitle(t)
		}
		g.setTitleHolder(t, holder)
	}
	d.Titles = nil
}

// setTitleHolder updates whichever place t names.
func (g *Game) setTitleHolder(t string, holder ids.CharID) {
	kind, ok := placeKind(t)
	if !ok {
		return
	}
	switch kind {
	case realm.PlaceFief:
		if f, ok := g.fiefs[ids.FiefID(t)]; ok {
			f.TitleHolder = holder
		}
	case realm.PlaceProvince:
		if p, ok := g.provinces[ids.ProvinceID(t)]; ok {
			p.TitleHolder = holder
		}
	case realm.PlaceKingdom:
		if k, ok := g.kingdoms[ids.KingdomID(t)]; ok {
			k.TitleHolder = holder
		}
	}
}

// ── Entourage ──────────────────────────────────────────────────────────

// AddToEntourage makes d travel with p. Both end up with the smaller of
// their two day allowances.
func (g *Game) AddToEntourage(p, d *character.Character) error {
	if err := requirePlayer(p); err != nil {
		return err
	}
	if err := requireFree(p); err != nil {
		return err
	}
	if d.Employer() != p.ID {
		return gameerr.New(gameerr.CodeNotEmployee, "%s does not serve %s", d.FullName(), p.FullName())
	}
	if err := requireFree(d); err != nil {
		return err
	}
	if d.Dependent.InEntourage {
		return gameerr.New(gameerr.CodeNotEligible, "%s is already in the entourage", d.FullName())
	}
	if err := requireColocated(p, d); err != nil {
		return err
	}

	days := math.Min(p.Days, d.Days)
	d.Dependent.InEntourage = true
	d.Route = nil
	d.InKeep = p.InKeep
	p.Player.Entourage = ids.Add(p.Player.Entourage, d.ID)
	g.SetDays(p, days)
	d.Days = days
	return nil
}

// RemoveFromEntourage leaves d where it stands.
func (g *Game) RemoveFromEntourage(p, d *character.Character) error {
	if err := requirePlayer(p); err != nil {
		return err
	}
	if !d.IsDependent() || !d.Dependent.InEntourage || d.Employer() != p.ID {
		return gameerr.New(gameerr.CodeNotEligible, "%s is not in the entourage", d.FullName())
	}
	g.leaveEntourage(p, d)
	return nil
}

func (g *Game) leaveEntourage(p, d *character.Character) {
	if p.IsPlayer() {
		p.Player.Entourage = ids.Remove(p.Player.Entourage, d.ID)
	}
	if d.IsDependent() {
		d.Dependent.InEntourage = false
	}
}

// ── Allowances ─────────────────────────────────────────────────────────

// HouseholdExpenses returns what p's family allowances and employee
// salaries cost per season. Both are annual figures.
func (g *Game) HouseholdExpenses(p *character.Character) float64 {
	if !p.IsPlayer() {
		return 0
	}
	total := 0.0
	for _, id := range p.Player.Dependents {
		d, ok := g.characters[id]
		if !ok || !d.Alive {
			continue
		}
		if IsFamilyOf(d, p) {
			total += character.FamilyAllowance(d.RelationTo(p), d.Age(g.clock.Now))
		} else if d.IsDependent() {
			total += d.Dependent.Salary
		}
	}
	return math.Round(total / 4)
}
