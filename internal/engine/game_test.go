package engine

import (
	"testing"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/clock"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/entropy"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/world"
)

const testYear = 1200

// charmedLife cancels the death roll entirely, so fixture characters only
// die when a test strips their traits.
var charmedLife = character.TraitLevel{
	Trait:     character.Trait{ID: "charmed", Name: "Charmed", Effects: map[character.Stat]float64{character.StatDeath: -1}},
	Intensity: 9,
}

// fixture is a small hand-built realm: one kingdom, two provinces and a
// row of four fiefs. Province 1 holds fiefs 1–2 and province 2 fiefs 3–4.
type fixture struct {
	g         *Game
	fiefs     []*realm.Fief
	provinces []*realm.Province
	kingdom   *realm.Kingdom
}

// newFixture builds the realm. rng drives every roll; a Fixed source at 0
// makes every roll succeed, one at 0.99 makes nearly every roll fail.
func newFixture(t *testing.T, rng entropy.Source) *fixture {
	t.Helper()
	g := NewGame(Options{StartYear: testYear, Rng: rng})
	fx := &fixture{g: g}

	fx.kingdom = &realm.Kingdom{ID: g.ids.NextKingdom(), Name: "England", Language: "E1", Nationality: "Eng"}
	g.kingdoms[fx.kingdom.ID] = fx.kingdom
	for _, name := range []string{"Wessex", "Mercia"} {
		p := &realm.Province{ID: g.ids.NextProvince(), Name: name, Kingdom: fx.kingdom.ID, TaxRate: 5}
		g.provinces[p.ID] = p
		fx.provinces = append(fx.provinces, p)
	}
	var nodes []world.Node
	for i, name := range []string{"Ashford", "Brampton", "Calder", "Dunmore"} {
		f := realm.NewFief(g.ids.NextFief(), name, fx.provinces[i/2].ID, world.HexCoord{Q: i}, world.TerrainPlains, "E1", 4000)
		g.fiefs[f.ID] = f
		fx.fiefs = append(fx.fiefs, f)
		nodes = append(nodes, world.Node{Fief: f.ID, Coord: f.Coord, Terrain: f.Terrain})
	}
	g.graph = world.NewGraph(nodes)
	return fx
}

// person creates a living, immortal character with middling ratings.
func (fx *fixture) person(sex character.Sex, age int, at *realm.Fief) *character.Character {
	c := &character.Character{
		ID:          fx.g.ids.NextChar(),
		FirstName:   "Test",
		FamilyName:  "Person",
		Sex:         sex,
		Birth:       fx.g.clock.Now.Add(-age * clock.SeasonsPerYear),
		Nationality: "Eng",
		Language:    "E1",
		Alive:       true,
		MaxHealth:   9,
		Virility:    5,
		Combat:      5,
		Management:  5,
		Location:    at.ID,
		Traits:      []character.TraitLevel{charmedLife},
		Ailments:    make(map[string]*character.Ailment),
	}
	c.Days = c.DaysAllowance()
	return c
}

// player founds a house that owns the given fiefs; the first is home.
func (fx *fixture) player(user string, owned ...*realm.Fief) *character.Character {
	p := fx.person(character.SexMale, 35, owned[0])
	p.FamilyID = p.ID
	p.Kind = character.RolePlayer
	p.Player = &character.PlayerRole{HomeFief: owned[0].ID, AncestralHome: owned[0].ID, Purse: 1000}
	fx.g.addCharacter(p)
	for _, f := range owned {
		f.Owner, f.TitleHolder = p.ID, p.ID
		p.AddTitle(string(f.ID))
		p.Player.Fiefs = append(p.Player.Fiefs, f.ID)
	}
	if user != "" {
		if err := fx.g.BindUser(user, p); err != nil {
			panic(err)
		}
	}
	return p
}

// relative adds a family member of head.
func (fx *fixture) relative(head *character.Character, sex character.Sex, age int) *character.Character {
	c := fx.person(sex, age, fx.g.fiefs[head.Location])
	c.FamilyName = head.FamilyName
	c.FamilyID = head.FamilyID
	c.Kind = character.RoleDependent
	c.Dependent = character.NewDependentRole()
	c.Dependent.Employer = head.ID
	fx.g.addCharacter(c)
	head.Player.Dependents = ids.Add(head.Player.Dependents, c.ID)
	return c
}

// son adds a son of head.
func (fx *fixture) son(head *character.Character, age int) *character.Character {
	c := fx.relative(head, character.SexMale, age)
	c.Father = head.ID
	return c
}

// npc adds an unattached dependent.
func (fx *fixture) npc(at *realm.Fief) *character.Character {
	c := fx.person(character.SexMale, 30, at)
	c.Kind = character.RoleDependent
	c.Dependent = character.NewDependentRole()
	fx.g.addCharacter(c)
	return c
}

// mortal strips c's traits so death rolls apply.
func mortal(c *character.Character) {
	c.Traits = nil
}

func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func checkInvariants(t *testing.T, g *Game) {
	t.Helper()
	if err := g.CheckInvariants(); err != nil {
		t.Fatalf("invariants violated:\n%v", err)
	}
}

func never() entropy.Source  { return &entropy.Fixed{Values: []float64{0.99}} }
func always() entropy.Source { return &entropy.Fixed{Values: []float64{0}} }

func TestLookupsReportNotFound(t *testing.T) {
	fx := newFixture(t, never())
	if _, err := fx.g.Character("Char_99"); err == nil {
		t.Fatalf("Character(missing) err = nil")
	}
	if _, err := fx.g.Fief("Fief_99"); err == nil {
		t.Fatalf("Fief(missing) err = nil")
	}
	a := fx.player("alice", fx.fiefs[0])
	got, err := fx.g.PlayerByUser("alice")
	mustOK(t, err)
	if got != a {
		t.Fatalf("PlayerByUser = %v, want %v", got.ID, a.ID)
	}
	d := fx.npc(fx.fiefs[0])
	if _, err := fx.g.Player(d.ID); err == nil {
		t.Fatalf("Player(dependent) err = nil")
	}
	checkInvariants(t, fx.g)
}

func TestBindUserRejectsSecondCharacter(t *testing.T) {
	fx := newFixture(t, never())
	fx.player("alice", fx.fiefs[0])
	b := fx.player("", fx.fiefs[2])
	if err := fx.g.BindUser("alice", b); err == nil {
		t.Fatalf("BindUser(alice, second) err = nil")
	}
}

func TestRatingContextUsesHighestTitle(t *testing.T) {
	fx := newFixture(t, never())
	a := fx.player("alice", fx.fiefs[0])
	if got := fx.g.RatingContext(a).RankStature; got != realm.Ranks[realm.PlaceFief].Stature {
		t.Fatalf("RankStature = %v, want baron's", got)
	}
	a.AddTitle(string(fx.kingdom.ID))
	fx.kingdom.TitleHolder = a.ID
	if got := fx.g.RatingContext(a).RankStature; got != realm.Ranks[realm.PlaceKingdom].Stature {
		t.Fatalf("RankStature = %v, want king's", got)
	}
}
