package authz

import (
	"testing"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

type fakeWorld map[ids.CharID]*character.Character

func (w fakeWorld) Character(id ids.CharID) (*character.Character, error) {
	c, ok := w[id]
	if !ok {
		return nil, gameerr.NotFound(gameerr.CodeCharacterNotFound, id)
	}
	return c, nil
}

func player(id ids.CharID, at ids.FiefID) *character.Character {
	return &character.Character{ID: id, Alive: true, Location: at, Kind: character.RolePlayer, Player: &character.PlayerRole{}}
}

func servant(id, employer ids.CharID, at ids.FiefID) *character.Character {
	d := character.NewDependentRole()
	d.Employer = employer
	return &character.Character{ID: id, Alive: true, Location: at, Kind: character.RoleDependent, Dependent: d}
}

func TestPredicates(t *testing.T) {
	alice := player("Char_1", "Fief_1")
	bob := player("Char_2", "Fief_2")
	clerk := servant("Char_3", alice.ID, "Fief_2")
	hostage := servant("Char_4", bob.ID, "Fief_1")
	hostage.Captor = alice.ID
	captiveClerk := servant("Char_5", alice.ID, "Fief_2")
	captiveClerk.Captor = bob.ID
	alice.Player.Dependents = []ids.CharID{clerk.ID, captiveClerk.ID}
	dead := player("Char_6", "Fief_1")
	dead.Alive = false
	w := fakeWorld{alice.ID: alice, bob.ID: bob, clerk.ID: clerk, hostage.ID: hostage, captiveClerk.ID: captiveClerk}

	aliceFief := &realm.Fief{ID: "Fief_1", Owner: alice.ID, Characters: []ids.CharID{alice.ID, hostage.ID}}
	bobFief := &realm.Fief{ID: "Fief_2", Owner: bob.ID, Characters: []ids.CharID{bob.ID, clerk.ID}}
	farFief := &realm.Fief{ID: "Fief_3", Owner: bob.ID}
	bobArmy := &realm.Army{ID: "Army_1", Owner: bob.ID, Location: farFief.ID}
	siege := &realm.Siege{ID: "Siege_1", BesiegingPlayer: bob.ID, DefendingPlayer: alice.ID}
	proposal := journal.Entry{ID: 1, Personae: []journal.Persona{{Character: bob.ID, Role: journal.RoleHead}, {Character: alice.ID, Role: journal.RoleRecipient}}}
	clerkNews := journal.Entry{ID: 2, Personae: []journal.Persona{{Character: clerk.ID, Role: journal.RoleSubject}}}

	as := func(p *character.Character) Actor { return Actor{User: "u", Player: p} }
	tests := []struct {
		name   string
		pred   Name
		actor  Actor
		target any
		want   bool
	}{
		{"owner controls own character", OwnsFreeCharOrAdmin, as(alice), alice, true},
		{"owner controls employee", OwnsFreeCharOrAdmin, as(alice), clerk, true},
		{"captive employee cannot be ordered", OwnsFreeCharOrAdmin, as(alice), captiveClerk, false},
		{"captive employee is still owned", OwnsCharOrAdmin, as(alice), captiveClerk, true},
		{"others' people are not owned", OwnsCharOrAdmin, as(bob), clerk, false},
		{"admin controls anyone", OwnsFreeCharOrAdmin, Actor{Admin: true}, captiveClerk, true},
		{"dead player is refused", OwnsCharOrAdmin, as(dead), dead, false},
		{"no player is refused", OwnsFiefOrAdmin, Actor{User: "ghost"}, aliceFief, false},
		{"co-located character is visible", CanSeeCharOrAdmin, as(alice), hostage, true},
		{"distant character is hidden", CanSeeCharOrAdmin, as(bob), alice, false},
		{"fief owner", OwnsFiefOrAdmin, as(alice), aliceFief, true},
		{"not fief owner", OwnsFiefOrAdmin, as(alice), bobFief, false},
		{"fief seen through an employee", CanSeeFiefOrAdmin, as(alice), bobFief, true},
		{"fief not seen", CanSeeFiefOrAdmin, as(alice), farFief, false},
		{"army owner", OwnsArmyOrAdmin, as(bob), bobArmy, true},
		{"army of another", OwnsArmyOrAdmin, as(alice), bobArmy, false},
		{"army in unseen fief", CanSeeArmyOrAdmin, as(alice), ArmyInFief{bobArmy, farFief}, false},
		{"army in seen fief", CanSeeArmyOrAdmin, as(alice), ArmyInFief{bobArmy, bobFief}, true},
		{"besieger owns siege", OwnsSiegeOrAdmin, as(bob), siege, true},
		{"defender does not own siege", OwnsSiegeOrAdmin, as(alice), siege, false},
		{"defender is party to siege", PartyToSiegeOrAdmin, as(alice), siege, true},
		{"captor holds captive", HoldsCaptiveOrAdmin, as(alice), hostage, true},
		{"family does not hold captive", HoldsCaptiveOrAdmin, as(bob), hostage, false},
		{"recipient of proposal", RecipientOfEntryOrAdmin, as(alice), proposal, true},
		{"sender is not recipient", RecipientOfEntryOrAdmin, as(bob), proposal, false},
		{"entry about household", OwnsJournalEntryOrAdmin, as(alice), clerkNews, true},
		{"entry about strangers", OwnsJournalEntryOrAdmin, as(bob), clerkNews, false},
		{"wrong target type", OwnsFiefOrAdmin, as(alice), bobArmy, false},
		{"admin only", IsAdmin, as(alice), nil, false},
		{"admin", IsAdmin, Actor{Admin: true}, nil, true},
	}
	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Evaluate(w, tt.pred, tt.actor, tt.target); got.Allowed != tt.want {
				t.Fatalf("%s = %+v, want allowed %v", tt.pred, got, tt.want)
			}
		})
	}
}

func TestCheckReturnsUnauthorized(t *testing.T) {
	r := NewRegistry()
	alice := player("Char_1", "Fief_1")
	f := &realm.Fief{ID: "Fief_2", Owner: "Char_2"}

	err := r.Check(fakeWorld{}, OwnsFiefOrAdmin, Actor{Player: alice}, f)
	if !gameerr.HasCode(err, gameerr.CodeUnauthorized) {
		t.Fatalf("Check err = %v, want %s", err, gameerr.CodeUnauthorized)
	}
	if err := r.Check(fakeWorld{}, "noSuchPredicate", Actor{Admin: true}, f); err == nil {
		t.Fatalf("unknown predicate allowed")
	}
}

func TestRegistryIsInjectable(t *testing.T) {
	r := NewRegistry()
	r.Set(OwnsFiefOrAdmin, func(World, Actor, any) Decision { return Decision{Allowed: true, Reason: "test"} })
	if err := r.Check(fakeWorld{}, OwnsFiefOrAdmin, Actor{}, nil); err != nil {
		t.Fatalf("replaced predicate: %v", err)
	}
	if d := NewRegistry().Evaluate(fakeWorld{}, OwnsFiefOrAdmin, Actor{}, nil); d.Allowed {
		t.Fatalf("Set leaked into another registry")
	}
	if len(r.Names()) != len(defaults) {
		t.Fatalf("names = %v", r.Names())
	}
}
