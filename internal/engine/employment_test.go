package engine

import (
	"slices"
	"testing"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
)

func TestHire(t *testing.T) {
	tests := []struct {
		name  string
		offer float64
		setup func(fx *fixture, p, d *character.Character)
		want  gameerr.Code
	}{
		{name: "accepted", offer: 20000},
		{name: "too low", offer: 1, want: gameerr.CodeSalaryTooLow},
		{name: "negative", offer: -5, want: gameerr.CodeInvalidAmount},
		{
			name:  "elsewhere",
			offer: 20000,
			setup: func(fx *fixture, p, d *character.Character) { fx.g.place(d, fx.fiefs[3].ID) },
			want:  gameerr.CodeNotColocated,
		},
		{
			name:  "dead",
			offer: 20000,
			setup: func(fx *fixture, p, d *character.Character) { fx.g.ProcessDeath(d, "test") },
			want:  gameerr.CodeCharacterDead,
		},
		{
			name:  "family",
			offer: 20000,
			setup: func(fx *fixture, p, d *character.Character) { d.FamilyID = "Char_0" },
			want:  gameerr.CodeFamilyMember,
		},
		{
			name:  "homeless",
			offer: 20000,
			setup: func(fx *fixture, p, d *character.Character) { p.Player.HomeFief = "" },
			want:  gameerr.CodeNoHomeFief,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, never())
			p := fx.player("alice", fx.fiefs[0])
			d := fx.npc(fx.fiefs[0])
			if tt.setup != nil {
				tt.setup(fx, p, d)
			}
			err := fx.g.Hire(p, d, tt.offer)
			if got := gameerr.CodeOf(err); got != tt.want {
				t.Fatalf("Hire code = %q, want %q (err %v)", got, tt.want, err)
			}
			hired := slices.Contains(p.Player.Dependents, d.ID)
			if hired != (tt.want == "") {
				t.Fatalf("hired = %v, want %v", hired, tt.want == "")
			}
			checkInvariants(t, fx.g)
		})
	}
}

func TestLowOfferIsRemembered(t *testing.T) {
	fx := newFixture(t, never())
	p := fx.player("alice", fx.fiefs[0])
	d := fx.npc(fx.fiefs[0])
	_ = fx.g.Hire(p, d, 10)
	if got := d.Dependent.LastOffers[p.ID]; got != 10 {
		t.Fatalf("LastOffers[%s] = %v, want 10", p.ID, got)
	}
}

func TestHireForgetsEarlierOffers(t *testing.T) {
	fx := newFixture(t, never())
	alice := fx.player("alice", fx.fiefs[0])
	bob := fx.player("bob", fx.fiefs[2])
	fx.g.place(bob, fx.fiefs[0].ID)
	d := fx.npc(fx.fiefs[0])

	if err := fx.g.Hire(bob, d, 10); !gameerr.HasCode(err, gameerr.CodeSalaryTooLow) {
		t.Fatalf("low offer err = %v, want %s", err, gameerr.CodeSalaryTooLow)
	}
	mustOK(t, fx.g.Hire(alice, d, 20000))
	if len(d.Dependent.LastOffers) != 0 {
		t.Fatalf("LastOffers = %v, want empty", d.Dependent.LastOffers)
	}
}

func TestHireAwayFromAnotherEmployer(t *testing.T) {
	fx := newFixture(t, never())
	alice := fx.player("alice", fx.fiefs[0])
	bob := fx.player("bob", fx.fiefs[2])
	fx.g.place(bob, fx.fiefs[0].ID)
	d := fx.npc(fx.fiefs[0])

	mustOK(t, fx.g.Hire(alice, d, 20000))
	mustOK(t, fx.g.AddToEntourage(alice, d))
	mustOK(t, fx.g.AppointBailiff(alice, fx.fiefs[0], d))
	if err := fx.g.Hire(bob, d, 20000); !gameerr.HasCode(err, gameerr.CodeSalaryTooLow) {
		t.Fatalf("matching offer err = %v, want %s", err, gameerr.CodeSalaryTooLow)
	}
	mustOK(t, fx.g.Hire(bob, d, 1e6))

	if d.Employer() != bob.ID {
		t.Fatalf("employer = %s, want %s", d.Employer(), bob.ID)
	}
	if slices.Contains(alice.Player.Dependents, d.ID) || slices.Contains(alice.Player.Entourage, d.ID) {
		t.Fatalf("previous employer still lists %s", d.ID)
	}
	if d.Dependent.InEntourage {
		t.Fatalf("%s still flagged in an entourage", d.ID)
	}
	if fx.fiefs[0].Bailiff != "" {
		t.Fatalf("bailiff = %s, want cleared", fx.fiefs[0].Bailiff)
	}
	checkInvariants(t, fx.g)
}

func TestFire(t *testing.T) {
	fx := newFixture(t, never())
	p := fx.player("alice", fx.fiefs[0])
	d := fx.npc(fx.fiefs[0])
	mustOK(t, fx.g.Hire(p, d, 20000))
	mustOK(t, fx.g.GrantFiefTitle(p, fx.fiefs[0], d))
	d.Route = []ids.FiefID{fx.fiefs[1].ID, fx.fiefs[2].ID}

	son := fx.son(p, 20)
	if err := fx.g.Fire(p, son); !gameerr.HasCode(err, gameerr.CodeFamilyMember) {
		t.Fatalf("Fire(son) err = %v, want %s", err, gameerr.CodeFamilyMember)
	}
	mustOK(t, fx.g.Fire(p, d))
	if d.Employer() != "" || d.Dependent.Salary != 0 {
		t.Fatalf("employer=%q salary=%v, want unemployed", d.Employer(), d.Dependent.Salary)
	}
	if d.Route != nil {
		t.Fatalf("route = %v, want cleared", d.Route)
	}
	if fx.fiefs[0].TitleHolder != p.ID {
		t.Fatalf("title holder = %s, want %s", fx.fiefs[0].TitleHolder, p.ID)
	}
	if err := fx.g.Fire(p, d); !gameerr.HasCode(err, gameerr.CodeNotEmployee) {
		t.Fatalf("second Fire err = %v, want %s", err, gameerr.CodeNotEmployee)
	}
	checkInvariants(t, fx.g)
}

func TestAdjustDays(t *testing.T) {
	fx := newFixture(t, never())
	p := fx.player("alice", fx.fiefs[0])
	d := fx.npc(fx.fiefs[0])
	mustOK(t, fx.g.Hire(p, d, 20000))
	d.Days = 40

	mustOK(t, fx.g.AddToEntourage(p, d))
	if p.Days != 40 || d.Days != 40 {
		t.Fatalf("days = %v/%v, want 40/40", p.Days, d.Days)
	}

	fx.g.AdjustDays(p, 0)
	if p.Days != 40 || d.Days != 40 {
		t.Fatalf("AdjustDays(0) changed days to %v/%v", p.Days, d.Days)
	}
	fx.g.AdjustDays(p, 15)
	if p.Days != 25 || d.Days != 25 {
		t.Fatalf("days = %v/%v, want 25/25", p.Days, d.Days)
	}
	fx.g.AdjustDays(p, 100)
	if p.Days != 0 || d.Days != 0 {
		t.Fatalf("days = %v/%v, want 0/0", p.Days, d.Days)
	}
	checkInvariants(t, fx.g)
}

func TestEntourageMembership(t *testing.T) {
	fx := newFixture(t, never())
	p := fx.player("alice", fx.fiefs[0])
	d := fx.npc(fx.fiefs[0])

	if err := fx.g.AddToEntourage(p, d); !gameerr.HasCode(err, gameerr.CodeNotEmployee) {
		t.Fatalf("AddToEntourage(stranger) err = %v, want %s", err, gameerr.CodeNotEmployee)
	}
	mustOK(t, fx.g.Hire(p, d, 20000))
	mustOK(t, fx.g.AddToEntourage(p, d))
	if err := fx.g.AddToEntourage(p, d); err == nil {
		t.Fatalf("second AddToEntourage err = nil")
	}
	if _, err := fx.g.TravelTo(d, fx.fiefs[1].ID); !gameerr.HasCode(err, gameerr.CodeTravelBlocked) {
		t.Fatalf("TravelTo(member) err = %v, want %s", err, gameerr.CodeTravelBlocked)
	}
	mustOK(t, fx.g.RemoveFromEntourage(p, d))
	if d.Dependent.InEntourage || len(p.Player.Entourage) != 0 {
		t.Fatalf("member still in the entourage")
	}
	if err := fx.g.RemoveFromEntourage(p, d); err == nil {
		t.Fatalf("second RemoveFromEntourage err = nil")
	}
	checkInvariants(t, fx.g)
}

func TestHouseholdExpenses(t *testing.T) {
	fx := newFixture(t, never())
	p := fx.player("alice", fx.fiefs[0])
	fx.son(p, 30) // 20000
	fx.son(p, 10) // 10000
	d := fx.npc(fx.fiefs[0])
	mustOK(t, fx.g.Hire(p, d, 20000))

	if got, want := fx.g.HouseholdExpenses(p), (20000.0+10000+20000)/4; got != want {
		t.Fatalf("HouseholdExpenses = %v, want %v", got, want)
	}
}
