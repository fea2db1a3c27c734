package dispatch

import (
	"strconv"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/authz"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/engine"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/protocol"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

func (c *call) ownedArmy() (*realm.Army, *character.Character, error) {
	a, err := c.targetArmy()
	if err != nil {
		return nil, nil, err
	}
	if err := c.check(authz.OwnsArmyOrAdmin, a); err != nil {
		return nil, nil, err
	}
	p, err := c.actingFor(a.Owner)
	if err != nil {
		return nil, nil, err
	}
	return a, p, nil
}

func armyResponse(a *realm.Army, format string, args ...any) protocol.Response {
	return respond(protocol.PayloadArmy, protocol.NewArmyView(a), format, args...)
}

// recruitTroops raises soldiers where the requester stands. Fields: count.
func recruitTroops(c *call) (protocol.Response, error) {
	n, err := c.uintField(0, 32)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.IsLivingPlayerOrAdmin, nil); err != nil {
		return protocol.Response{}, err
	}
	p, err := c.self()
	if err != nil {
		return protocol.Response{}, err
	}
	a, cost, err := c.g.RecruitTroops(p, uint32(n))
	if err != nil {
		return protocol.Response{}, err
	}
	resp := armyResponse(a, "%d troops raised for %s", n, engine.Money(cost))
	resp.Fields = []string{strconv.FormatFloat(cost, 'f', 0, 64)}
	return resp, nil
}

func maintainArmy(c *call) (protocol.Response, error) {
	a, p, err := c.ownedArmy()
	if err != nil {
		return protocol.Response{}, err
	}
	cost, err := c.g.MaintainArmy(p, a)
	if err != nil {
		return protocol.Response{}, err
	}
	return armyResponse(a, "%s maintained for %s", a.ID, engine.Money(cost)), nil
}

// appointLeader puts someone in command. Fields: leader.
func appointLeader(c *call) (protocol.Response, error) {
	a, p, err := c.ownedArmy()
	if err != nil {
		return protocol.Response{}, err
	}
	leader, err := c.fieldChar(0)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsFreeCharOrAdmin, leader); err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.AppointLeader(p, a, leader); err != nil {
		return protocol.Response{}, err
	}
	return armyResponse(a, "%s leads %s", leader.FullName(), a.ID), nil
}

// dropOffTroops leaves a detachment in the army's fief. Fields: seven troop
// counts by type, then an optional player to leave them for.
func dropOffTroops(c *call) (protocol.Response, error) {
	a, p, err := c.ownedArmy()
	if err != nil {
		return protocol.Response{}, err
	}
	if len(c.req.Fields) < realm.NumTroopTypes {
		return protocol.Response{}, gameerr.Invalid("need %d troop counts, got %d", realm.NumTroopTypes, len(c.req.Fields))
	}
	var troops realm.Troops
	for i := range troops {
		n, err := c.uintField(i, 32)
		if err != nil {
			return protocol.Response{}, err
		}
		troops[i] = uint32(n)
	}
	var leftFor *character.Character
	if id := c.optField(realm.NumTroopTypes); id != "" {
		if leftFor, err = c.g.Player(ids.CharID(id)); err != nil {
			return protocol.Response{}, err
		}
	}
	d, err := c.g.DropOffTroops(p, a, troops, leftFor)
	if err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadDetachment, protocol.NewDetachmentView(d), "%d troops left in %s", troops.Total(), a.Location), nil
}

// listDetachments lists the detachments waiting for the requester in the
// fief named by Message, or where the requester stands.
func listDetachments(c *call) (protocol.Response, error) {
	p, err := c.self()
	if err != nil {
		return protocol.Response{}, err
	}
	id := p.Location
	if c.req.Message != "" {
		id = ids.FiefID(c.req.Message)
	}
	f, err := c.g.Fief(id)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.CanSeeFiefOrAdmin, f); err != nil {
		return protocol.Response{}, err
	}
	var views []protocol.DetachmentView
	for _, d := range c.g.Detachments(p, f) {
		views = append(views, protocol.NewDetachmentView(d))
	}
	return respond(protocol.PayloadDetachments, views, "%d detachments in %s", len(views), f.Name), nil
}

// pickUpTroops collects the detachments listed in Fields.
func pickUpTroops(c *call) (protocol.Response, error) {
	a, p, err := c.ownedArmy()
	if err != nil {
		return protocol.Response{}, err
	}
	if len(c.req.Fields) == 0 {
		return protocol.Response{}, gameerr.Invalid("no detachments named")
	}
	dets := make([]ids.DetachmentID, len(c.req.Fields))
	for i, f := range c.req.Fields {
		dets[i] = ids.DetachmentID(f)
	}
	n, err := c.g.PickUpTroops(p, a, dets)
	if err != nil {
		return protocol.Response{}, err
	}
	return armyResponse(a, "%d troops joined %s", n, a.ID), nil
}

func disbandArmy(c *call) (protocol.Response, error) {
	a, p, err := c.ownedArmy()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.DisbandArmy(p, a); err != nil {
		return protocol.Response{}, err
	}
	return respond("", nil, "%s disbanded", a.ID), nil
}

// adjustCombatValues sets aggression and combat odds. Fields: aggression,
// odds.
func adjustCombatValues(c *call) (protocol.Response, error) {
	a, p, err := c.ownedArmy()
	if err != nil {
		return protocol.Response{}, err
	}
	aggression, err := c.uintField(0, 8)
	if err != nil {
		return protocol.Response{}, err
	}
	odds, err := c.uintField(1, 8)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.AdjustCombatValues(p, a, uint8(aggression), uint8(odds)); err != nil {
		return protocol.Response{}, err
	}
	return armyResponse(a, "%s: aggression %d, odds %d", a.ID, aggression, odds), nil
}

func besiegeFief(c *call) (protocol.Response, error) {
	a, p, err := c.ownedArmy()
	if err != nil {
		return protocol.Response{}, err
	}
	s, err := c.g.BesiegeFief(p, a)
	if err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadSiege, protocol.NewSiegeView(s), "%s lays siege to %s", p.FullName(), s.Fief), nil
}

var roundKinds = map[protocol.Action]realm.RoundKind{
	protocol.ActionSiegeRoundReduction: realm.RoundReduction,
	protocol.ActionSiegeRoundStorm:     realm.RoundStorm,
	protocol.ActionSiegeRoundNegotiate: realm.RoundNegotiate,
}

// siegeRound fights one round. Response fields: captured, attacker losses
// as a fraction, defender losses, success chance.
func siegeRound(c *call) (protocol.Response, error) {
	s, err := c.targetSiege()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsSiegeOrAdmin, s); err != nil {
		return protocol.Response{}, err
	}
	p, err := c.actingFor(s.BesiegingPlayer)
	if err != nil {
		return protocol.Response{}, err
	}
	kind := roundKinds[c.req.Action]
	res, err := c.g.SiegeRound(p, s, kind)
	if err != nil {
		return protocol.Response{}, err
	}
	outcome := "the siege goes on"
	if res.Captured {
		outcome = "the fief has fallen"
	}
	resp := respond(protocol.PayloadSiege, protocol.NewSiegeView(s), "%s at %s: %s", kind, s.Fief, outcome)
	resp.Fields = []string{
		strconv.FormatBool(res.Captured),
		strconv.FormatFloat(res.AttackerLosses, 'f', 3, 64),
		strconv.FormatUint(uint64(res.DefenderLosses), 10),
		strconv.FormatFloat(res.Chance, 'f', 1, 64),
	}
	return resp, nil
}

func endSiege(c *call) (protocol.Response, error) {
	s, err := c.targetSiege()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsSiegeOrAdmin, s); err != nil {
		return protocol.Response{}, err
	}
	p, err := c.actingFor(s.BesiegingPlayer)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.EndSiege(p, s); err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadSiege, protocol.NewSiegeView(s), "siege of %s lifted", s.Fief), nil
}
