package engine

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

// levyMix is the share of each troop type in a fresh levy, by nationality.
var levyMix = map[string][realm.NumTroopTypes]float64{
	"Eng": {0.02, 0.08, 0.05, 0.25, 0.00, 0.50, 0.10},
	"Fr":  {0.05, 0.10, 0.05, 0.00, 0.20, 0.45, 0.15},
	"Sco": {0.01, 0.07, 0.12, 0.05, 0.00, 0.55, 0.20},
}

// levy splits count recruits into troop types. Rounding leftovers join the foot.
func levy(count uint32, nationality string) realm.Troops {
	mix, ok := levyMix[nationality]
	if !ok {
		mix = levyMix["Eng"]
	}
	var t realm.Troops
	for i, share := range mix {
		t[i] = uint32(math.Floor(float64(count) * share))
	}
	t[realm.TroopFoot] += count - t.Total()
	return t
}

// resignLeadership leaves whatever army c leads without a leader.
func (g *Game) resignLeadership(c *character.Character) {
	if a, ok := g.armies[c.Army]; ok && a.Leader == c.ID {
		a.ClearLeader()
	}
	c.Army = ""
}

// registerArmy adds a new army to the world, its owner and its fief.
func (g *Game) registerArmy(a *realm.Army) {
	g.armies[a.ID] = a
	if owner, ok := g.characters[a.Owner]; ok && owner.IsPlayer() {
		owner.Player.Armies = ids.Add(owner.Player.Armies, a.ID)
	}
	if f, ok := g.fiefs[a.Location]; ok {
		f.Armies = ids.Add(f.Armies, a.ID)
	}
}

// disbandArmy removes an army and everything that depended on it.
func (g *Game) disbandArmy(a *realm.Army) {
	if leader, ok := g.characters[a.Leader]; ok && leader.Army == a.ID {
		leader.Army = ""
	}
	if owner, ok := g.characters[a.Owner]; ok && owner.IsPlayer() {
		owner.Player.Armies = ids.Remove(owner.Player.Armies, a.ID)
	}
	if f, ok := g.fiefs[a.Location]; ok {
		f.Armies = ids.Remove(f.Armies, a.ID)
	}
	for _, s := range g.Sieges() {
		if s.BesiegingArmy == a.ID {
			g.endSiege(s, "the besieging army was disbanded")
		}
	}
	delete(g.armies, a.ID)
	slog.Debug("army disbanded", "army", a.ID, "owner", a.Owner)
}

// moveArmy relocates an army, keeping the fief army lists current.
func (g *Game) moveArmy(a *realm.Army, to ids.FiefID) {
	if f, ok := g.fiefs[a.Location]; ok {
		f.Armies = ids.Remove(f.Armies, a.ID)
	}
	a.Location = to
	if f, ok := g.fiefs[to]; ok {
		f.Armies = ids.Add(f.Armies, a.ID)
	}
}

func requireArmyOwner(p *character.Character, a *realm.Army) error {
	if a.Owner != p.ID {
		return gameerr.Unauthorized("ownsArmyOrAdmin")
	}
	return nil
}

func requireLeader(a *realm.Army) error {
	if a.Leader == "" {
		return gameerr.New(gameerr.CodeNoLeader, "%s has no leader", a.ID)
	}
	return nil
}

// RecruitTroops raises count troops in p's current fief. They join the army
// p leads, or a new army led by p. Recruiting in a fief p does not own
// costs double. Returns the army and the price paid from p's home treasury.
func (g *Game) RecruitTroops(p *character.Character, count uint32) (*realm.Army, float64, error) {
	if err := requirePlayer(p); err != nil {
		return nil, 0, err
	}
	if err := requireFree(p); err != nil {
		return nil, 0, err
	}
	if count == 0 {
		return nil, 0, gameerr.New(gameerr.CodeInvalidAmount, "must recruit at least one soldier")
	}
	f, err := g.Fief(p.Location)
	if err != nil {
		return nil, 0, err
	}
	if f.Siege != "" {
		return nil, 0, gameerr.New(gameerr.CodeUnderSiege, "%s is under siege", f.Name)
	}
	if avail := f.MilitiaAvailable(); avail < count {
		return nil, 0, gameerr.New(gameerr.CodeInsufficientMilitia, "%s can raise only %d more troops this season", f.Name, avail)
	}
	led, leading := g.armies[p.Army]
	if leading && led.Owner != p.ID {
		return nil, 0, gameerr.New(gameerr.CodeNotEligible, "%s leads an army belonging to another lord", p.FullName())
	}
	cost := float64(count) * realm.RecruitCostPerTroop
	if f.Owner != p.ID {
		cost *= 2
	}
	home, err := g.homeFief(p)
	if err != nil {
		return nil, 0, err
	}
	if home.Treasury < cost {
		return nil, 0, gameerr.New(gameerr.CodeInsufficientFunds, "recruiting %d troops costs %s; %s holds %s", count, Money(cost), home.Name, Money(home.Treasury))
	}

	home.AdjustTreasury(-cost)
	f.Recruited += count

	nationality := p.Nationality
	if k := g.kingdomOf(f.ID); k != nil {
		nationality = k.Nationality
	}
	a := led
	if !leading {
		a = realm.NewArmy(g.ids.NextArmy(), p.ID, f.ID, nationality, p.Days)
		g.registerArmy(a)
		p.Army = a.ID
		a.AssignLeader(p.ID, p.Days)
	}
	a.AddTroops(levy(count, nationality))
	slog.Info("troops recruited", "player", p.ID, "army", a.ID, "fief", f.ID, "count", count, "cost", cost)
	return a, cost, nil
}

// MaintainArmy pays the army's upkeep for this season from p's home treasury.
func (g *Game) MaintainArmy(p *character.Character, a *realm.Army) (float64, error) {
	if err := requireArmyOwner(p, a); err != nil {
		return 0, err
	}
	if a.Maintained {
		return 0, gameerr.New(gameerr.CodeNotEligible, "%s is already maintained this season", a.ID)
	}
	home, err := g.homeFief(p)
	if err != nil {
		return 0, err
	}
	cost := a.MaintenanceCost()
	if home.Treasury < cost {
		return 0, gameerr.New(gameerr.CodeInsufficientFunds, "upkeep is %s; %s holds %s", Money(cost), home.Name, Money(home.Treasury))
	}
	home.AdjustTreasury(-cost)
	a.Maintained = true
	return cost, nil
}

// AppointLeader puts leader (p or one of p's people) in command of a.
func (g *Game) AppointLeader(p *character.Character, a *realm.Army, leader *character.Character) error {
	if err := requireArmyOwner(p, a); err != nil {
		return err
	}
	if !Serves(leader, p) {
		return gameerr.New(gameerr.CodeNotEmployee, "%s does not serve %s", leader.FullName(), p.FullName())
	}
	if err := requireFree(leader); err != nil {
		return err
	}
	if leader.Location != a.Location {
		return gameerr.New(gameerr.CodeNotColocated, "%s is not with %s", leader.FullName(), a.ID)
	}
	if a.Leader == leader.ID {
		return nil
	}
	if leader.IsDependent() && leader.Dependent.InEntourage {
		g.leaveEntourage(p, leader)
	}
	if prev, ok := g.characters[a.Leader]; ok {
		prev.Army = ""
	}
	g.resignLeadership(leader)
	leader.Army = a.ID
	a.AssignLeader(leader.ID, leader.Days)
	return nil
}

// AdjustCombatValues sets a led army's aggression and retreat odds.
func (g *Game) AdjustCombatValues(p *character.Character, a *realm.Army, aggression, odds uint8) error {
	if err := requireArmyOwner(p, a); err != nil {
		return err
	}
	if err := requireLeader(a); err != nil {
		return err
	}
	if err := a.SetCombatValues(aggression, odds); err != nil {
		return gameerr.Wrap(gameerr.CodeInvalidInput, err, "combat values")
	}
	return nil
}

// DropOffTroops leaves part of an army in its fief for leftFor to collect.
func (g *Game) DropOffTroops(p *character.Character, a *realm.Army, troops realm.Troops, leftFor *character.Character) (realm.Detachment, error) {
	if err := requireArmyOwner(p, a); err != nil {
		return realm.Detachment{}, err
	}
	if err := requireLeader(a); err != nil {
		return realm.Detachment{}, err
	}
	if leftFor == nil {
		leftFor = p
	}
	if err := requirePlayer(leftFor); err != nil {
		return realm.Detachment{}, err
	}
	if troops.Total() == 0 {
		return realm.Detachment{}, gameerr.New(gameerr.CodeInvalidAmount, "no troops specified")
	}
	f, err := g.Fief(a.Location)
	if err != nil {
		return realm.Detachment{}, err
	}
	if !a.Detach(troops) {
		return realm.Detachment{}, gameerr.New(gameerr.CodeInsufficientTroops, "%s does not have those troops", a.ID)
	}
	d := realm.Detachment{
		ID:          g.ids.NextDetachment(),
		Troops:      troops,
		LeftBy:      p.ID,
		LeftFor:     leftFor.ID,
		Nationality: a.Nationality,
		Days:        a.Days,
	}
	f.AddDetachment(d)
	return d, nil
}

// Detachments lists the troops waiting in f for p.
func (g *Game) Detachments(p *character.Character, f *realm.Fief) []realm.Detachment {
	var out []realm.Detachment
	for _, d := range f.Detachments {
		if d.LeftFor == p.ID {
			out = append(out, d)
		}
	}
	return out
}

// PickUpTroops merges detachments waiting for p into a. The army slows to
// the most tired detachment. Either every detachment is collected or none.
func (g *Game) PickUpTroops(p *character.Character, a *realm.Army, detachments []ids.DetachmentID) (uint32, error) {
	if err := requireArmyOwner(p, a); err != nil {
		return 0, err
	}
	if err := requireLeader(a); err != nil {
		return 0, err
	}
	f, err := g.Fief(a.Location)
	if err != nil {
		return 0, err
	}
	if len(detachments) == 0 {
		return 0, gameerr.Invalid("no detachments specified")
	}
	for _, id := range detachments {
		found := slices.ContainsFunc(f.Detachments, func(d realm.Detachment) bool {
			return d.ID == id && d.LeftFor == p.ID
		})
		if !found {
			return 0, gameerr.NotFound(gameerr.CodeDetachmentNotFound, id)
		}
	}

	var picked uint32
	days := a.Days
	for _, id := range detachments {
		d, ok := f.TakeDetachment(id)
		if !ok {
			continue
		}
		a.AddTroops(d.Troops)
		picked += d.Troops.Total()
		days = math.Min(days, d.Days)
	}
	if leader, ok := g.characters[a.Leader]; ok && days < leader.Days {
		g.SetDays(leader, days)
	}
	return picked, nil
}

// DisbandArmy sends the troops home.
func (g *Game) DisbandArmy(p *character.Character, a *realm.Army) error {
	if err := requireArmyOwner(p, a); err != nil {
		return err
	}
	g.disbandArmy(a)
	return nil
}

// ── Sieges ─────────────────────────────────────────────────────────────

// BesiegeFief starts a siege of the fief a stands in.
func (g *Game) BesiegeFief(p *character.Character, a *realm.Army) (*realm.Siege, error) {
	if err := requireArmyOwner(p, a); err != nil {
		return nil, err
	}
	if err := requireLeader(a); err != nil {
		return nil, err
	}
	if a.TroopCount() == 0 {
		return nil, gameerr.New(gameerr.CodeInsufficientTroops, "%s has no troops", a.ID)
	}
	f, err := g.Fief(a.Location)
	if err != nil {
		return nil, err
	}
	if f.Owner == p.ID {
		return nil, gameerr.New(gameerr.CodeNotBesiegeable, "%s cannot besiege their own fief", p.FullName())
	}
	if f.Siege != "" {
		return nil, gameerr.New(gameerr.CodeUnderSiege, "%s is already under siege", f.Name)
	}

	s := &realm.Siege{
		ID:              g.ids.NextSiege(),
		Fief:            f.ID,
		BesiegingArmy:   a.ID,
		BesiegingPlayer: p.ID,
		DefendingPlayer: f.Owner,
		Garrison:        f.GarrisonStrength(),
		KeepLevel:       f.KeepLevel,
		Start:           g.clock.Now,
	}
	g.sieges[s.ID] = s
	f.Siege = s.ID
	p.Player.Sieges = ids.Add(p.Player.Sieges, s.ID)
	personae := []journal.Persona{persona(p, journal.RoleAttacker)}
	if def, ok := g.characters[f.Owner]; ok && def.IsPlayer() {
		def.Player.Sieges = ids.Add(def.Player.Sieges, s.ID)
		personae = append(personae, persona(def, journal.RoleDefender))
	}
	slog.Info("siege started", "siege", s.ID, "fief", f.ID, "attacker", p.ID, "defender", f.Owner)
	g.record(journal.TypeSiege, f.ID, fmt.Sprintf("%s laid siege to %s", p.FullName(), f.Name), personae...)
	return s, nil
}

// SiegeRound fights one round of a siege. A decisive round hands the fief
// to the besieger and gaols the defenders sheltering in the keep.
func (g *Game) SiegeRound(p *character.Character, s *realm.Siege, kind realm.RoundKind) (realm.RoundResult, error) {
	if s.BesiegingPlayer != p.ID {
		return realm.RoundResult{}, gameerr.Unauthorized("ownsSiegeOrAdmin")
	}
	a, err := g.Army(s.BesiegingArmy)
	if err != nil {
		return realm.RoundResult{}, err
	}
	if a.Location != s.Fief {
		return realm.RoundResult{}, gameerr.New(gameerr.CodeNotColocated, "%s has left the siege", a.ID)
	}
	if err := requireLeader(a); err != nil {
		return realm.RoundResult{}, err
	}
	leader, err := g.Character(a.Leader)
	if err != nil {
		return realm.RoundResult{}, err
	}
	if err := requireDays(leader, realm.RoundDays); err != nil {
		return realm.RoundResult{}, err
	}
	f, err := g.Fief(s.Fief)
	if err != nil {
		return realm.RoundResult{}, err
	}

	defenderStature := 1.0
	if def, ok := g.characters[s.DefendingPlayer]; ok && def.Alive {
		defenderStature = g.Stature(def)
	}
	in := realm.RoundInput{
		AttackerTroops:     a.TroopCount(),
		AttackerLeadership: leader.LeadershipValue(g.RatingContext(leader), kind == realm.RoundStorm),
		AttackerStature:    g.Stature(p),
		DefenderStature:    defenderStature,
		DefenderLoyalty:    f.Loyalty,
	}
	res := s.Round(kind, in, g.rng)
	s.AttackerLosses += a.TakeLosses(res.AttackerLosses)
	g.AdjustDays(leader, realm.RoundDays)

	if res.Captured {
		g.captureFief(s, p, f)
	}
	return res, nil
}

// captureFief ends a siege in the besieger's favour.
func (g *Game) captureFief(s *realm.Siege, p *character.Character, f *realm.Fief) {
	for _, id := range slices.Clone(f.Characters) {
		c, ok := g.characters[id]
		if !ok || !c.Alive || !c.InKeep || c.IsCaptive() {
			continue
		}
		if c.ID == s.DefendingPlayer || (c.Employer() == s.DefendingPlayer && c.Employer() != "") {
			g.takeCaptive(p, c, f.ID)
		}
	}
	g.transferFief(f, p)
	f.KeepLevel = s.KeepLevel
	f.Loyalty = math.Max(0, f.Loyalty-2)
	p.StatureModifier += 0.25
	g.endSiege(s, "the fief was taken")
}

// EndSiege lets the besieger raise the siege.
func (g *Game) EndSiege(p *character.Character, s *realm.Siege) error {
	if s.BesiegingPlayer != p.ID {
		return gameerr.Unauthorized("ownsSiegeOrAdmin")
	}
	g.endSiege(s, "the siege was raised")
	return nil
}

// endSiege removes a siege from the world.
func (g *Game) endSiege(s *realm.Siege, reason string) {
	if f, ok := g.fiefs[s.Fief]; ok && f.Siege == s.ID {
		f.Siege = ""
	}
	var personae []journal.Persona
	for i, id := range []ids.CharID{s.BesiegingPlayer, s.DefendingPlayer} {
		if c, ok := g.characters[id]; ok {
			if c.IsPlayer() {
				c.Player.Sieges = ids.Remove(c.Player.Sieges, s.ID)
			}
			role := journal.RoleAttacker
			if i == 1 {
				role = journal.RoleDefender
			}
			personae = append(personae, persona(c, role))
		}
	}
	delete(g.sieges, s.ID)
	slog.Info("siege ended", "siege", s.ID, "fief", s.Fief, "reason", reason)
	name := string(s.Fief)
	if f, ok := g.fiefs[s.Fief]; ok {
		name = f.Name
	}
	g.record(journal.TypeSiege, s.Fief, fmt.Sprintf("The siege of %s ended: %s", name, reason), personae...)
}
