// Package authz holds the permission predicates every player action is
// checked against before it may change the world.
//
// Predicates are registered by name so the dispatcher never encodes a
// policy inline; a deployment can swap any of them through Registry.Set.
// Every predicate is pure: it reads the actor, the target and the world and
// returns a Decision.
package authz

import (
	"fmt"
	"maps"
	"slices"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/engine"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

// Name identifies a predicate in the registry.
type Name string

const (
	IsAdmin                 Name = "isAdmin"
	OwnsCharOrAdmin         Name = "ownsCharOrAdmin"
	OwnsFreeCharOrAdmin     Name = "ownsFreeCharOrAdmin" // Owned and not held captive
	CanSeeCharOrAdmin       Name = "canSeeCharOrAdmin"
	OwnsFiefOrAdmin         Name = "ownsFiefOrAdmin"
	CanSeeFiefOrAdmin       Name = "canSeeFiefOrAdmin"
	OwnsArmyOrAdmin         Name = "ownsArmyOrAdmin"
	CanSeeArmyOrAdmin       Name = "canSeeArmyOrAdmin"
	OwnsSiegeOrAdmin        Name = "ownsSiegeOrAdmin"
	PartyToSiegeOrAdmin     Name = "partyToSiegeOrAdmin"
	HoldsCaptiveOrAdmin     Name = "holdsCaptiveOrAdmin"
	OwnsJournalEntryOrAdmin Name = "ownsJournalEntryOrAdmin"
	RecipientOfEntryOrAdmin Name = "recipientOfEntryOrAdmin"
	OwnsProvinceOrAdmin     Name = "ownsProvinceOrAdmin"
	IsLivingPlayerOrAdmin   Name = "isLivingPlayerOrAdmin"
)

// Decision reasons.
const (
	ReasonAllowAdmin    = "ALLOW_ADMIN"
	ReasonAllowOwner    = "ALLOW_OWNER"
	ReasonAllowVisible  = "ALLOW_VISIBLE"
	ReasonDenyNoPlayer  = "DENY_NO_PLAYER"
	ReasonDenyNotOwner  = "DENY_NOT_OWNER"
	ReasonDenyCaptive   = "DENY_CAPTIVE"
	ReasonDenyNotSeen   = "DENY_NOT_VISIBLE"
	ReasonDenyWrongType = "DENY_WRONG_TARGET"
	ReasonDenyUnknown   = "DENY_UNKNOWN_PREDICATE"
)

// Decision is the outcome of one predicate.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Reason: reason} }

// Actor is the requester. Player is nil for an administrator without a
// character, or a user whose house has been wiped out.
type Actor struct {
	User   string
	Player *character.Character
	Admin  bool
}

// World is the read-only view predicates may consult.
type World interface {
	Character(id ids.CharID) (*character.Character, error)
}

// Predicate decides whether actor may touch target.
type Predicate func(w World, actor Actor, target any) Decision

// Registry maps predicate names to their implementations.
type Registry struct {
	preds map[Name]Predicate
}

// NewRegistry returns a registry holding the default predicates.
func NewRegistry() *Registry {
	return &Registry{preds: maps.Clone(defaults)}
}

// Set installs or replaces a predicate.
func (r *Registry) Set(name Name, p Predicate) {
	r.preds[name] = p
}

// Names lists the registered predicates in sorted order.
func (r *Registry) Names() []Name {
	return slices.Sorted(maps.Keys(r.preds))
}

// Evaluate runs one predicate. Unknown names deny.
func (r *Registry) Evaluate(w World, name Name, actor Actor, target any) Decision {
	p, ok := r.preds[name]
	if !ok {
		return deny(ReasonDenyUnknown)
	}
	return p(w, actor, target)
}

// Check runs one predicate and turns a denial into an Unauthorized error.
func (r *Registry) Check(w World, name Name, actor Actor, target any) error {
	if d := r.Evaluate(w, name, actor, target); !d.Allowed {
		return gameerr.Unauthorized(fmt.Sprintf("%s: %s", name, d.Reason))
	}
	return nil
}

var defaults = map[Name]Predicate{
	IsAdmin:                 adminOnly,
	OwnsCharOrAdmin:         orAdmin(ownsChar(false)),
	OwnsFreeCharOrAdmin:     orAdmin(ownsChar(true)),
	CanSeeCharOrAdmin:       orAdmin(canSeeChar),
	OwnsFiefOrAdmin:         orAdmin(ownsFief),
	CanSeeFiefOrAdmin:       orAdmin(canSeeFief),
	OwnsArmyOrAdmin:         orAdmin(ownsArmy),
	CanSeeArmyOrAdmin:       orAdmin(canSeeArmy),
	OwnsSiegeOrAdmin:        orAdmin(ownsSiege),
	PartyToSiegeOrAdmin:     orAdmin(partyToSiege),
	HoldsCaptiveOrAdmin:     orAdmin(holdsCaptive),
	OwnsJournalEntryOrAdmin: orAdmin(ownsEntry),
	RecipientOfEntryOrAdmin: orAdmin(recipientOf),
	OwnsProvinceOrAdmin:     orAdmin(ownsProvince),
	IsLivingPlayerOrAdmin:   orAdmin(func(World, Actor, any) Decision { return allow(ReasonAllowOwner) }),
}

func adminOnly(_ World, a Actor, _ any) Decision {
	if a.Admin {
		return allow(ReasonAllowAdmin)
	}
	return deny(ReasonDenyNotOwner)
}

// orAdmin lets admins through and otherwise requires a living player.
func orAdmin(p Predicate) Predicate {
	return func(w World, a Actor, target any) Decision {
		if a.Admin {
			return allow(ReasonAllowAdmin)
		}
		if a.Player == nil || !a.Player.Alive || !a.Player.IsPlayer() {
			return deny(ReasonDenyNoPlayer)
		}
		return p(w, a, target)
	}
}

func ownsChar(mustBeFree bool) Predicate {
	return func(_ World, a Actor, target any) Decision {
		c, ok := target.(*character.Character)
		if !ok {
			return deny(ReasonDenyWrongType)
		}
		if !engine.Serves(c, a.Player) {
			return deny(ReasonDenyNotOwner)
		}
		if mustBeFree && c.IsCaptive() {
			return deny(ReasonDenyCaptive)
		}
		return allow(ReasonAllowOwner)
	}
}

// sees reports whether p or one of p's people is present in fief.
func sees(w World, p *character.Character, f *realm.Fief) bool {
	if f.Owner == p.ID {
		return true
	}
	for _, id := range f.Characters {
		c, err := w.Character(id)
		if err == nil && engine.Serves(c, p) {
			return true
		}
	}
	return false
}

func canSeeChar(w World, a Actor, target any) Decision {
	c, ok := target.(*character.Character)
	if !ok {
		return deny(ReasonDenyWrongType)
	}
	if engine.Serves(c, a.Player) {
		return allow(ReasonAllowOwner)
	}
	if c.Location == a.Player.Location {
		return allow(ReasonAllowVisible)
	}
	return deny(ReasonDenyNotSeen)
}

func ownsFief(_ World, a Actor, target any) Decision {
	f, ok := target.(*realm.Fief)
	if !ok {
		return deny(ReasonDenyWrongType)
	}
	if f.Owner != a.Player.ID {
		return deny(ReasonDenyNotOwner)
	}
	return allow(ReasonAllowOwner)
}

func canSeeFief(w World, a Actor, target any) Decision {
	f, ok := target.(*realm.Fief)
	if !ok {
		return deny(ReasonDenyWrongType)
	}
	if !sees(w, a.Player, f) {
		return deny(ReasonDenyNotSeen)
	}
	return allow(ReasonAllowVisible)
}

func ownsArmy(_ World, a Actor, target any) Decision {
	army, ok := target.(*realm.Army)
	if !ok {
		return deny(ReasonDenyWrongType)
	}
	if army.Owner != a.Player.ID {
		return deny(ReasonDenyNotOwner)
	}
	return allow(ReasonAllowOwner)
}

// canSeeArmy needs the army and the fief it stands in.
func canSeeArmy(w World, a Actor, target any) Decision {
	t, ok := target.(ArmyInFief)
	if !ok {
		return deny(ReasonDenyWrongType)
	}
	if t.Army.Owner == a.Player.ID {
		return allow(ReasonAllowOwner)
	}
	if t.Fief != nil && sees(w, a.Player, t.Fief) {
		return allow(ReasonAllowVisible)
	}
	return deny(ReasonDenyNotSeen)
}

// ArmyInFief is the target of CanSeeArmyOrAdmin.
type ArmyInFief struct {
	Army *realm.Army
	Fief *realm.Fief
}

func ownsSiege(_ World, a Actor, target any) Decision {
	s, ok := target.(*realm.Siege)
	if !ok {
		return deny(ReasonDenyWrongType)
	}
	if s.BesiegingPlayer != a.Player.ID {
		return deny(ReasonDenyNotOwner)
	}
	return allow(ReasonAllowOwner)
}

func partyToSiege(_ World, a Actor, target any) Decision {
	s, ok := target.(*realm.Siege)
	if !ok {
		return deny(ReasonDenyWrongType)
	}
	if s.BesiegingPlayer != a.Player.ID && s.DefendingPlayer != a.Player.ID {
		return deny(ReasonDenyNotOwner)
	}
	return allow(ReasonAllowOwner)
}

func holdsCaptive(_ World, a Actor, target any) Decision {
	c, ok := target.(*character.Character)
	if !ok {
		return deny(ReasonDenyWrongType)
	}
	if c.Captor != a.Player.ID {
		return deny(ReasonDenyNotOwner)
	}
	return allow(ReasonAllowOwner)
}

// ownsEntry allows entries naming the player or anyone in the household.
func ownsEntry(w World, a Actor, target any) Decision {
	e, ok := target.(journal.Entry)
	if !ok {
		return deny(ReasonDenyWrongType)
	}
	for _, p := range e.Personae {
		if p.Character == a.Player.ID || slices.Contains(a.Player.Player.Dependents, p.Character) {
			return allow(ReasonAllowOwner)
		}
	}
	return deny(ReasonDenyNotOwner)
}

func recipientOf(_ World, a Actor, target any) Decision {
	e, ok := target.(journal.Entry)
	if !ok {
		return deny(ReasonDenyWrongType)
	}
	if r, ok := e.Persona(journal.RoleRecipient); !ok || r != a.Player.ID {
		return deny(ReasonDenyNotOwner)
	}
	return allow(ReasonAllowOwner)
}

func ownsProvince(_ World, a Actor, target any) Decision {
	p, ok := target.(*realm.Province)
	if !ok {
		return deny(ReasonDenyWrongType)
	}
	if p.Owner != a.Player.ID {
		return deny(ReasonDenyNotOwner)
	}
	return allow(ReasonAllowOwner)
}
