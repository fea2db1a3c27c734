package engine

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

func TestGetHeir(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, fx *fixture, p *character.Character) *character.Character // Returns the expected heir
	}{
		{
			name: "eldest son",
			setup: func(t *testing.T, fx *fixture, p *character.Character) *character.Character {
				fx.son(p, 12)
				return fx.son(p, 19)
			},
		},
		{
			name: "sons before brothers",
			setup: func(t *testing.T, fx *fixture, p *character.Character) *character.Character {
				b := fx.relative(p, character.SexMale, 40)
				b.Father = p.Father
				return fx.son(p, 8)
			},
		},
		{
			name: "eldest brother without sons",
			setup: func(t *testing.T, fx *fixture, p *character.Character) *character.Character {
				younger := fx.relative(p, character.SexMale, 30)
				elder := fx.relative(p, character.SexMale, 45)
				younger.Father, elder.Father = p.Father, p.Father
				return elder
			},
		},
		{
			name: "appointed heir wins",
			setup: func(t *testing.T, fx *fixture, p *character.Character) *character.Character {
				fx.son(p, 19)
				younger := fx.son(p, 12)
				mustOK(t, fx.g.AppointHeir(p, younger))
				return younger
			},
		},
		{
			name: "daughters do not inherit",
			setup: func(t *testing.T, fx *fixture, p *character.Character) *character.Character {
				d := fx.relative(p, character.SexFemale, 20)
				d.Father = p.ID
				return nil
			},
		},
		{
			name: "employees do not inherit",
			setup: func(t *testing.T, fx *fixture, p *character.Character) *character.Character {
				n := fx.npc(fx.fiefs[0])
				mustOK(t, fx.g.Hire(p, n, 1e9))
				n.Father = p.ID
				return nil
			},
		},
		{
			name: "dead sons are skipped",
			setup: func(t *testing.T, fx *fixture, p *character.Character) *character.Character {
				elder := fx.son(p, 20)
				younger := fx.son(p, 15)
				fx.g.ProcessDeath(elder, "test")
				return younger
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, never())
			p := fx.player("alice", fx.fiefs[0])
			p.Father = "Char_0"
			want := tt.setup(t, fx, p)
			got := fx.g.GetHeir(p)
			switch {
			case want == nil && got != nil:
				t.Fatalf("GetHeir = %s, want none", got.ID)
			case want != nil && got == nil:
				t.Fatalf("GetHeir = none, want %s", want.ID)
			case want != nil && got.ID != want.ID:
				t.Fatalf("GetHeir = %s, want %s", got.ID, want.ID)
			}
		})
	}
}

func TestAppointHeirReplacesPrevious(t *testing.T) {
	fx := newFixture(t, never())
	p := fx.player("alice", fx.fiefs[0])
	a, b := fx.son(p, 20), fx.son(p, 18)
	mustOK(t, fx.g.AppointHeir(p, a))
	mustOK(t, fx.g.AppointHeir(p, b))
	if a.IsHeir() || !b.IsHeir() {
		t.Fatalf("heir flags = %v/%v, want false/true", a.IsHeir(), b.IsHeir())
	}
	n := fx.npc(fx.fiefs[0])
	mustOK(t, fx.g.Hire(p, n, 1e9))
	if err := fx.g.AppointHeir(p, n); err == nil {
		t.Fatalf("AppointHeir(employee) err = nil")
	}
	checkInvariants(t, fx.g)
}

func TestProcessDeathTwiceIsNoop(t *testing.T) {
	fx := newFixture(t, never())
	p := fx.player("alice", fx.fiefs[0])
	s := fx.son(p, 20)
	mustOK(t, fx.g.AppointHeir(p, s))

	if !fx.g.ProcessDeath(p, "test") {
		t.Fatalf("first ProcessDeath = false")
	}
	before, err := json.Marshal(fx.g.Snapshot())
	mustOK(t, err)
	if fx.g.ProcessDeath(p, "test") {
		t.Fatalf("second ProcessDeath = true")
	}
	after, err := json.Marshal(fx.g.Snapshot())
	mustOK(t, err)
	if string(before) != string(after) {
		t.Fatalf("second ProcessDeath changed the world")
	}
	checkInvariants(t, fx.g)
}

func TestInheritanceCarriesEstate(t *testing.T) {
	fx := newFixture(t, never())
	p := fx.player("alice", fx.fiefs[0], fx.fiefs[1])
	p.Player.Purse = 777
	fx.provinces[0].Owner, fx.provinces[0].TitleHolder = p.ID, p.ID
	p.AddTitle(string(fx.provinces[0].ID))
	p.Player.Provinces = []ids.ProvinceID{fx.provinces[0].ID}
	heir := fx.son(p, 20)
	brother := fx.relative(p, character.SexMale, 30)
	employee := fx.npc(fx.fiefs[0])
	mustOK(t, fx.g.Hire(p, employee, 1e9))
	mustOK(t, fx.g.AppointBailiff(p, fx.fiefs[1], employee))

	fx.g.ProcessDeath(p, "test")

	if !heir.IsPlayer() || heir.Player.Purse != 777 {
		t.Fatalf("heir player=%v purse=%v, want true 777", heir.IsPlayer(), heir.Player.Purse)
	}
	if p.IsPlayer() && len(p.Player.Fiefs) > 0 {
		t.Fatalf("deceased still holds fiefs %v", p.Player.Fiefs)
	}
	for _, f := range fx.fiefs[:2] {
		if f.Owner != heir.ID || f.TitleHolder != heir.ID {
			t.Fatalf("%s owner=%s holder=%s, want %s", f.ID, f.Owner, f.TitleHolder, heir.ID)
		}
	}
	if fx.fiefs[1].Bailiff != employee.ID {
		t.Fatalf("bailiff = %q, want %s kept", fx.fiefs[1].Bailiff, employee.ID)
	}
	if fx.provinces[0].Owner != heir.ID {
		t.Fatalf("province owner = %s, want %s", fx.provinces[0].Owner, heir.ID)
	}
	if employee.Employer() != heir.ID || brother.Employer() != heir.ID {
		t.Fatalf("employers = %s/%s, want %s", employee.Employer(), brother.Employer(), heir.ID)
	}
	if slices.Contains(heir.Player.Dependents, heir.ID) {
		t.Fatalf("heir lists itself as a dependent")
	}
	if got, err := fx.g.PlayerByUser("alice"); err != nil || got != heir {
		t.Fatalf("PlayerByUser(alice) = %v, %v, want heir", got, err)
	}
	if len(fx.g.Journal().Find(journal.Filter{Type: journal.TypeSuccession})) != 1 {
		t.Fatalf("no succession entry recorded")
	}
	checkInvariants(t, fx.g)
}

func TestPlayerDyingMidSeasonLeavesArmyLeaderless(t *testing.T) {
	fx := newFixture(t, always())
	p := fx.player("alice", fx.fiefs[0])
	heir := fx.son(p, 20)
	a, _, err := fx.g.RecruitTroops(p, 20)
	mustOK(t, err)
	mustOK(t, fx.g.AdjustCombatValues(p, a, 2, 7))
	mortal(p)

	sum, err := fx.g.SeasonUpdate()
	mustOK(t, err)

	if p.Alive {
		t.Fatalf("player survived a certain death roll")
	}
	if sum.Deaths != 1 || sum.Successions != 1 {
		t.Fatalf("deaths=%d successions=%d, want 1 1", sum.Deaths, sum.Successions)
	}
	if a.Leader != "" || a.Aggression != realm.DefaultAggression || a.CombatOdds != realm.DefaultCombatOdds {
		t.Fatalf("army leader=%q aggression=%d odds=%d, want leaderless defaults", a.Leader, a.Aggression, a.CombatOdds)
	}
	if a.Owner != heir.ID || fx.fiefs[0].Owner != heir.ID {
		t.Fatalf("army owner=%s fief owner=%s, want %s", a.Owner, fx.fiefs[0].Owner, heir.ID)
	}
	if !slices.Contains(heir.Player.Armies, a.ID) {
		t.Fatalf("heir armies = %v, want %s", heir.Player.Armies, a.ID)
	}
	if got, _ := fx.g.PlayerByUser("alice"); got != heir {
		t.Fatalf("alice is not rebound to the heir")
	}
	checkInvariants(t, fx.g)
}

func TestEscheatToSovereign(t *testing.T) {
	fx := newFixture(t, never())
	king := fx.player("alice", fx.fiefs[0], fx.fiefs[1])
	fx.kingdom.Owner, fx.kingdom.TitleHolder = king.ID, king.ID
	king.AddTitle(string(fx.kingdom.ID))
	king.Player.Kingdoms = []ids.KingdomID{fx.kingdom.ID}

	vassal := fx.player("bob", fx.fiefs[2], fx.fiefs[3])
	servant := fx.npc(fx.fiefs[2])
	mustOK(t, fx.g.Hire(vassal, servant, 1e9))
	a, _, err := fx.g.RecruitTroops(vassal, 10)
	mustOK(t, err)

	fx.g.ProcessDeath(vassal, "test")

	for _, f := range fx.fiefs[2:] {
		if f.Owner != king.ID || f.TitleHolder != king.ID {
			t.Fatalf("%s owner=%s holder=%s, want %s", f.ID, f.Owner, f.TitleHolder, king.ID)
		}
		if !slices.Contains(king.Player.Fiefs, f.ID) {
			t.Fatalf("sovereign does not list %s", f.ID)
		}
	}
	if _, err := fx.g.Army(a.ID); err == nil {
		t.Fatalf("army %s survived the escheat", a.ID)
	}
	if servant.Employer() != "" {
		t.Fatalf("servant employer = %s, want none", servant.Employer())
	}
	if _, err := fx.g.PlayerByUser("bob"); err == nil {
		t.Fatalf("bob is still bound")
	}
	checkInvariants(t, fx.g)
}

func TestEscheatWithoutSovereignLeavesLandUnowned(t *testing.T) {
	fx := newFixture(t, never())
	p := fx.player("bob", fx.fiefs[2])

	fx.g.ProcessDeath(p, "test")

	if f := fx.fiefs[2]; f.Owner != "" || f.TitleHolder != "" {
		t.Fatalf("owner=%q holder=%q, want unowned", f.Owner, f.TitleHolder)
	}
	if n := len(fx.g.Journal().Find(journal.Filter{Type: journal.TypeEscheat})); n != 1 {
		t.Fatalf("escheat entries = %d, want 1", n)
	}
	checkInvariants(t, fx.g)
}

func TestDeadDependentIsReplaced(t *testing.T) {
	fx := newFixture(t, never())
	n := fx.npc(fx.fiefs[1])
	before := len(fx.g.characters)
	fx.g.ProcessDeath(n, "test")
	if got := len(fx.g.characters); got != before+1 {
		t.Fatalf("characters = %d, want %d", got, before+1)
	}
	checkInvariants(t, fx.g)
}
