package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

// GetHeir picks who inherits from player p: the family member flagged as
// heir, else the eldest living son, else the eldest living brother.
// Among equals in age the first in the roster wins.
func (g *Game) GetHeir(p *character.Character) *character.Character {
	if !p.IsPlayer() {
		return nil
	}
	var family []*character.Character
	for _, id := range p.Player.Dependents {
		if d, ok := g.characters[id]; ok && d.Alive && IsFamilyOf(d, p) {
			family = append(family, d)
		}
	}
	for _, d := range family {
		if d.Dependent.IsHeir {
			return d
		}
	}
	if son := eldest(family, func(d *character.Character) bool { return d.IsSonOf(p) }); son != nil {
		return son
	}
	return eldest(family, func(d *character.Character) bool { return d.IsBrotherOf(p) })
}

func eldest(cs []*character.Character, match func(*character.Character) bool) *character.Character {
	var best *character.Character
	for _, c := range cs {
		if !match(c) {
			continue
		}
		if best == nil || c.OlderThan(best) {
			best = c
		}
	}
	return best
}

// settleEstate passes a dead player's estate to the heir, or escheats it.
func (g *Game) settleEstate(deceased *character.Character) {
	if heir := g.GetHeir(deceased); heir != nil {
		g.inherit(deceased, heir)
		return
	}
	g.escheat(deceased)
}

// commitEstates settles the estates queued during a season tick.
func (g *Game) commitEstates() int {
	n := 0
	for _, id := range g.pendingEstates {
		if c, ok := g.characters[id]; ok {
			g.settleEstate(c)
			n++
		}
	}
	g.pendingEstates = nil
	return n
}

// inherit promotes heir to the player role, carrying over the human
// binding and every possession, and points every reference at the heir.
func (g *Game) inherit(deceased, heir *character.Character) {
	role := deceased.Player

	role.Dependents = ids.Remove(role.Dependents, heir.ID)
	// The travelling party breaks up; the heir may be elsewhere.
	for _, id := range role.Entourage {
		if m, ok := g.characters[id]; ok && m.IsDependent() {
			m.Dependent.InEntourage = false
		}
	}
	role.Entourage = nil

	heir.PromoteToPlayer(role)
	deceased.Player = &character.PlayerRole{}
	if role.PlayerID != "" {
		g.users[role.PlayerID] = heir.ID
	}

	g.rewriteReferences(deceased.ID, heir.ID)
	for _, t := range deceased.Titles {
		heir.AddTitle(t)
	}
	deceased.Titles = nil

	slog.Info("succession", "deceased", deceased.ID, "heir", heir.ID, "user", role.PlayerID)
	g.record(journal.TypeSuccession, heir.Location,
		fmt.Sprintf("%s inherits the estate of %s", heir.FullName(), deceased.FullName()),
		persona(deceased, journal.RoleSubject), persona(heir, journal.RoleHeir))
}

// rewriteReferences points every reference to from at to.
func (g *Game) rewriteReferences(from, to ids.CharID) {
	swap := func(ref *ids.CharID) {
		if *ref == from {
			*ref = to
		}
	}
	for _, f := range g.fiefs {
		swap(&f.Owner)
		swap(&f.TitleHolder)
		swap(&f.Bailiff)
		for i := range f.Detachments {
			swap(&f.Detachments[i].LeftBy)
			swap(&f.Detachments[i].LeftFor)
		}
	}
	for _, p := range g.provinces {
		swap(&p.Owner)
		swap(&p.TitleHolder)
	}
	for _, k := range g.kingdoms {
		swap(&k.Owner)
		swap(&k.TitleHolder)
	}
	for _, a := range g.armies {
		swap(&a.Owner)
	}
	for _, s := range g.sieges {
		swap(&s.BesiegingPlayer)
		swap(&s.DefendingPlayer)
	}
	for _, ch := range g.challenges {
		swap(&ch.Challenger)
	}
	for _, c := range g.characters {
		swap(&c.Captor)
		if c.IsDependent() {
			swap(&c.Dependent.Employer)
		}
	}
}

// escheat handles a player dying without an heir. Lands and titles go to
// the sovereign of the kingdom containing the home fief; armies are
// disbanded, captives released and dependents dismissed. With no living
// sovereign (or when the deceased was the sovereign) the lands are left
// without an owner.
func (g *Game) escheat(deceased *character.Character) {
	role := deceased.Player
	sovereign := g.sovereignOf(role.HomeFief)
	if sovereign != nil && sovereign.ID == deceased.ID {
		sovereign = nil
	}
	var heirID ids.CharID
	if sovereign != nil {
		heirID = sovereign.ID
	}

	for _, id := range slices.Clone(role.Armies) {
		if a, ok := g.armies[id]; ok {
			g.disbandArmy(a)
		}
	}
	for _, id := range slices.Clone(role.Sieges) {
		s, ok := g.sieges[id]
		if !ok {
			continue
		}
		if s.BesiegingPlayer == deceased.ID {
			g.endSiege(s, "the besieger died")
			continue
		}
		s.DefendingPlayer = heirID
		if sovereign != nil {
			sovereign.Player.Sieges = ids.Add(sovereign.Player.Sieges, s.ID)
		}
	}
	for _, id := range slices.Clone(role.Captives) {
		if c, ok := g.characters[id]; ok {
			g.freeCaptive(c)
		}
	}
	for _, id := range slices.Clone(role.Dependents) {
		if d, ok := g.characters[id]; ok {
			g.dismiss(deceased, d)
			d.FamilyID = ""
		}
	}
	g.revertTitles(deceased, sovereign)

	claim := func(owner, holder *ids.CharID, place string) {
		*owner = heirID
		if *holder == "" || *holder == deceased.ID {
			*holder = heirID
			if sovereign != nil {
				sovereign.AddTitle(place)
			}
		}
	}
	for _, id := range role.Fiefs {
		f, ok := g.fiefs[id]
		if !ok {
			continue
		}
		claim(&f.Owner, &f.TitleHolder, string(f.ID))
		f.Bailiff = ""
		if sovereign != nil {
			sovereign.Player.Fiefs = ids.Add(sovereign.Player.Fiefs, f.ID)
		}
	}
	for _, id := range role.Provinces {
		if p, ok := g.provinces[id]; ok {
			claim(&p.Owner, &p.TitleHolder, string(p.ID))
			if sovereign != nil {
				sovereign.Player.Provinces = ids.Add(sovereign.Player.Provinces, p.ID)
			}
		}
	}
	for _, id := range role.Kingdoms {
		if k, ok := g.kingdoms[id]; ok {
			claim(&k.Owner, &k.TitleHolder, string(k.ID))
			if sovereign != nil {
				sovereign.Player.Kingdoms = ids.Add(sovereign.Player.Kingdoms, k.ID)
			}
		}
	}

	for id, ch := range g.challenges {
		if ch.Challenger == deceased.ID {
			delete(g.challenges, id)
		}
	}
	for _, f := range g.fiefs {
		f.Detachments = slices.DeleteFunc(f.Detachments, func(d realm.Detachment) bool {
			return d.LeftFor == deceased.ID
		})
	}
	if role.PlayerID != "" {
		delete(g.users, role.PlayerID)
	}
	deceased.Player = &character.PlayerRole{}

	desc := fmt.Sprintf("%s died without an heir; the estate is left without a lord", deceased.FullName())
	personae := []journal.Persona{persona(deceased, journal.RoleSubject)}
	if sovereign != nil {
		desc = fmt.Sprintf("%s died without an heir; the estate escheats to %s", deceased.FullName(), sovereign.FullName())
		personae = append(personae, persona(sovereign, journal.RoleHeir))
	}
	slog.Info("estate escheated", "deceased", deceased.ID, "to", heirID, "user", role.PlayerID)
	g.record(journal.TypeEscheat, role.HomeFief, desc, personae...)
}
