package engine

import (
	"slices"
	"testing"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

func TestLevyKeepsCount(t *testing.T) {
	for _, nat := range []string{"Eng", "Fr", "Sco", "Unknown"} {
		for _, n := range []uint32{1, 7, 20, 333} {
			if got := levy(n, nat).Total(); got != n {
				t.Fatalf("levy(%d, %s) total = %d", n, nat, got)
			}
		}
	}
}

func TestRecruitTroops(t *testing.T) {
	fx := newFixture(t, never())
	alice := fx.player("alice", fx.fiefs[0])
	bob := fx.player("bob", fx.fiefs[2])

	a, cost, err := fx.g.RecruitTroops(alice, 20)
	mustOK(t, err)
	if cost != 1000 || fx.fiefs[0].Treasury != 4000 {
		t.Fatalf("cost=%v treasury=%v, want 1000 4000", cost, fx.fiefs[0].Treasury)
	}
	if a.Leader != alice.ID || alice.Army != a.ID || a.TroopCount() != 20 {
		t.Fatalf("army leader=%s troops=%d, want led by alice with 20", a.Leader, a.TroopCount())
	}
	if !slices.Contains(alice.Player.Armies, a.ID) || !slices.Contains(fx.fiefs[0].Armies, a.ID) {
		t.Fatalf("army not registered with owner and fief")
	}

	again, _, err := fx.g.RecruitTroops(alice, 10)
	mustOK(t, err)
	if again != a || a.TroopCount() != 30 {
		t.Fatalf("second levy raised a new army or lost troops: %d", a.TroopCount())
	}
	if _, _, err := fx.g.RecruitTroops(alice, 171); !gameerr.HasCode(err, gameerr.CodeInsufficientMilitia) {
		t.Fatalf("over-recruit err = %v, want %s", err, gameerr.CodeInsufficientMilitia)
	}
	if _, _, err := fx.g.RecruitTroops(alice, 0); !gameerr.HasCode(err, gameerr.CodeInvalidAmount) {
		t.Fatalf("zero recruit err = %v, want %s", err, gameerr.CodeInvalidAmount)
	}

	// Abroad the price doubles and comes out of the home treasury.
	fx.g.place(bob, fx.fiefs[0].ID)
	b, cost, err := fx.g.RecruitTroops(bob, 10)
	mustOK(t, err)
	if cost != 1000 || fx.fiefs[2].Treasury != 4000 || b == a {
		t.Fatalf("cost=%v home treasury=%v, want 1000 4000 and a new army", cost, fx.fiefs[2].Treasury)
	}
	checkInvariants(t, fx.g)
}

func TestRecruitNeedsFunds(t *testing.T) {
	fx := newFixture(t, never())
	p := fx.player("alice", fx.fiefs[0])
	fx.fiefs[0].Treasury = 100
	if _, _, err := fx.g.RecruitTroops(p, 10); !gameerr.HasCode(err, gameerr.CodeInsufficientFunds) {
		t.Fatalf("err = %v, want %s", err, gameerr.CodeInsufficientFunds)
	}
	if len(fx.g.Armies()) != 0 || fx.fiefs[0].Recruited != 0 {
		t.Fatalf("failed recruit left an army or used militia")
	}
}

func TestMaintenanceAndAttrition(t *testing.T) {
	fx := newFixture(t, never())
	alice := fx.player("alice", fx.fiefs[0])
	bob := fx.player("bob", fx.fiefs[2])
	paid, _, err := fx.g.RecruitTroops(alice, 20)
	mustOK(t, err)
	unpaid, _, err := fx.g.RecruitTroops(bob, 20)
	mustOK(t, err)

	cost, err := fx.g.MaintainArmy(alice, paid)
	mustOK(t, err)
	if cost != 200 || fx.fiefs[0].Treasury != 3800 {
		t.Fatalf("upkeep=%v treasury=%v, want 200 3800", cost, fx.fiefs[0].Treasury)
	}
	if _, err := fx.g.MaintainArmy(alice, paid); !gameerr.HasCode(err, gameerr.CodeNotEligible) {
		t.Fatalf("second upkeep err = %v, want %s", err, gameerr.CodeNotEligible)
	}
	if _, err := fx.g.MaintainArmy(alice, unpaid); !gameerr.HasCode(err, gameerr.CodeUnauthorized) {
		t.Fatalf("upkeep of another's army err = %v, want %s", err, gameerr.CodeUnauthorized)
	}

	_, err = fx.g.SeasonUpdate()
	mustOK(t, err)
	if paid.TroopCount() != 20 || paid.Maintained {
		t.Fatalf("paid army troops=%d maintained=%v, want 20 false", paid.TroopCount(), paid.Maintained)
	}
	if n := unpaid.TroopCount(); n == 0 || n >= 20 {
		t.Fatalf("unpaid army troops = %d, want attrition", n)
	}
	checkInvariants(t, fx.g)
}

func TestAppointLeader(t *testing.T) {
	fx := newFixture(t, never())
	p := fx.player("alice", fx.fiefs[0])
	s := fx.son(p, 20)
	a, _, err := fx.g.RecruitTroops(p, 20)
	mustOK(t, err)

	mustOK(t, fx.g.AppointLeader(p, a, s))
	if a.Leader != s.ID || s.Army != a.ID || p.Army != "" {
		t.Fatalf("leader=%s son army=%s player army=%s", a.Leader, s.Army, p.Army)
	}
	stranger := fx.npc(fx.fiefs[0])
	if err := fx.g.AppointLeader(p, a, stranger); !gameerr.HasCode(err, gameerr.CodeNotEmployee) {
		t.Fatalf("AppointLeader(stranger) err = %v, want %s", err, gameerr.CodeNotEmployee)
	}
	if err := fx.g.AdjustCombatValues(p, a, 3, 1); !gameerr.HasCode(err, gameerr.CodeInvalidInput) {
		t.Fatalf("AdjustCombatValues(3, 1) err = %v, want %s", err, gameerr.CodeInvalidInput)
	}

	fx.g.ProcessDeath(s, "test")
	if a.Leader != "" {
		t.Fatalf("dead leader still leads %s", a.ID)
	}
	if err := fx.g.AdjustCombatValues(p, a, 2, 2); !gameerr.HasCode(err, gameerr.CodeNoLeader) {
		t.Fatalf("AdjustCombatValues(leaderless) err = %v, want %s", err, gameerr.CodeNoLeader)
	}
	checkInvariants(t, fx.g)
}

func TestDropOffAndPickUp(t *testing.T) {
	fx := newFixture(t, never())
	p := fx.player("alice", fx.fiefs[0])
	a, _, err := fx.g.RecruitTroops(p, 20)
	mustOK(t, err)

	var five realm.Troops
	five[realm.TroopFoot] = 5
	d, err := fx.g.DropOffTroops(p, a, five, nil)
	mustOK(t, err)
	if a.TroopCount() != 15 || d.LeftFor != p.ID {
		t.Fatalf("army troops=%d left for=%s, want 15 %s", a.TroopCount(), d.LeftFor, p.ID)
	}
	if got := fx.g.Detachments(p, fx.fiefs[0]); len(got) != 1 || got[0].ID != d.ID {
		t.Fatalf("Detachments = %v, want %s", got, d.ID)
	}

	var many realm.Troops
	many[realm.TroopKnights] = 100
	if _, err := fx.g.DropOffTroops(p, a, many, nil); !gameerr.HasCode(err, gameerr.CodeInsufficientTroops) {
		t.Fatalf("DropOffTroops(100 knights) err = %v, want %s", err, gameerr.CodeInsufficientTroops)
	}
	if _, err := fx.g.PickUpTroops(p, a, []ids.DetachmentID{d.ID, "Detachment_99"}); !gameerr.HasCode(err, gameerr.CodeDetachmentNotFound) {
		t.Fatalf("PickUpTroops(unknown) err = %v, want %s", err, gameerr.CodeDetachmentNotFound)
	}
	if a.TroopCount() != 15 {
		t.Fatalf("failed pick-up changed the army: %d", a.TroopCount())
	}

	picked, err := fx.g.PickUpTroops(p, a, []ids.DetachmentID{d.ID})
	mustOK(t, err)
	if picked != 5 || a.TroopCount() != 20 || len(fx.fiefs[0].Detachments) != 0 {
		t.Fatalf("picked=%d troops=%d waiting=%d, want 5 20 0", picked, a.TroopCount(), len(fx.fiefs[0].Detachments))
	}
	checkInvariants(t, fx.g)
}

// siegeScene marches alice's army to bob's home, where bob and a servant
// shelter in the keep.
func siegeScene(t *testing.T, fx *fixture) (alice, bob, servant *character.Character, a *realm.Army) {
	t.Helper()
	alice = fx.player("alice", fx.fiefs[0])
	bob = fx.player("bob", fx.fiefs[2])
	servant = fx.npc(fx.fiefs[2])
	mustOK(t, fx.g.Hire(bob, servant, 20000))
	bob.InKeep, servant.InKeep = true, true

	a, _, err := fx.g.RecruitTroops(alice, 100)
	mustOK(t, err)
	if _, err := fx.g.BesiegeFief(alice, a); !gameerr.HasCode(err, gameerr.CodeNotBesiegeable) {
		t.Fatalf("besiege own fief err = %v, want %s", err, gameerr.CodeNotBesiegeable)
	}
	res, err := fx.g.TravelTo(alice, fx.fiefs[2].ID)
	mustOK(t, err)
	if !res.Arrived() || a.Location != fx.fiefs[2].ID {
		t.Fatalf("army at %s, want %s", a.Location, fx.fiefs[2].ID)
	}
	return alice, bob, servant, a
}

func TestStormTakesTheFief(t *testing.T) {
	fx := newFixture(t, always())
	alice, bob, servant, a := siegeScene(t, fx)
	f := fx.fiefs[2]

	s, err := fx.g.BesiegeFief(alice, a)
	mustOK(t, err)
	if f.Siege != s.ID || !slices.Contains(bob.Player.Sieges, s.ID) {
		t.Fatalf("siege not recorded on the fief and defender")
	}
	if _, err := fx.g.BesiegeFief(alice, a); !gameerr.HasCode(err, gameerr.CodeUnderSiege) {
		t.Fatalf("second siege err = %v, want %s", err, gameerr.CodeUnderSiege)
	}
	if _, err := fx.g.SiegeRound(bob, s, realm.RoundStorm); !gameerr.HasCode(err, gameerr.CodeUnauthorized) {
		t.Fatalf("SiegeRound(defender) err = %v, want %s", err, gameerr.CodeUnauthorized)
	}

	res, err := fx.g.SiegeRound(alice, s, realm.RoundStorm)
	mustOK(t, err)
	if !res.Captured {
		t.Fatalf("storm failed against a succeeding roll (chance %v)", res.Chance)
	}
	if f.Owner != alice.ID || f.Siege != "" {
		t.Fatalf("fief owner=%s siege=%q, want %s and none", f.Owner, f.Siege, alice.ID)
	}
	if bob.Captor != alice.ID || servant.Captor != alice.ID {
		t.Fatalf("captors = %q/%q, want %s", bob.Captor, servant.Captor, alice.ID)
	}
	if !slices.Contains(f.Gaol, bob.ID) || !slices.Contains(f.Gaol, servant.ID) {
		t.Fatalf("gaol = %v, want bob and servant", f.Gaol)
	}
	if _, err := fx.g.Siege(s.ID); err == nil {
		t.Fatalf("siege %s still exists", s.ID)
	}
	if len(bob.Player.Sieges) != 0 || len(alice.Player.Sieges) != 0 {
		t.Fatalf("players still list the siege")
	}
	checkInvariants(t, fx.g)
}

func TestSiegeEndsWhenArmyLeaves(t *testing.T) {
	fx := newFixture(t, never())
	alice, bob, _, a := siegeScene(t, fx)
	s, err := fx.g.BesiegeFief(alice, a)
	mustOK(t, err)

	if err := fx.g.EndSiege(bob, s); !gameerr.HasCode(err, gameerr.CodeUnauthorized) {
		t.Fatalf("EndSiege(defender) err = %v, want %s", err, gameerr.CodeUnauthorized)
	}
	_, err = fx.g.TravelTo(alice, fx.fiefs[3].ID)
	mustOK(t, err)

	sum, err := fx.g.SeasonUpdate()
	mustOK(t, err)
	if sum.SiegesEnded != 1 || fx.fiefs[2].Siege != "" {
		t.Fatalf("sieges ended = %d, fief siege = %q", sum.SiegesEnded, fx.fiefs[2].Siege)
	}
	if fx.fiefs[2].Owner != bob.ID {
		t.Fatalf("owner = %s, want %s", fx.fiefs[2].Owner, bob.ID)
	}
	checkInvariants(t, fx.g)
}

func TestDisbandArmyEndsSiege(t *testing.T) {
	fx := newFixture(t, never())
	alice, _, _, a := siegeScene(t, fx)
	s, err := fx.g.BesiegeFief(alice, a)
	mustOK(t, err)

	mustOK(t, fx.g.DisbandArmy(alice, a))
	if _, err := fx.g.Siege(s.ID); err == nil {
		t.Fatalf("siege survived the disbanding")
	}
	if alice.Army != "" || len(alice.Player.Armies) != 0 {
		t.Fatalf("alice still leads or owns the army")
	}
	checkInvariants(t, fx.g)
}
