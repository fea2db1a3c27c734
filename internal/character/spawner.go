// Character spawning: creates players, hireable dependents and newborns
// with rolled ratings, traits and names.
package character

import (
	"math"
	"slices"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/clock"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/entropy"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
)

// Spawner creates characters for the simulation.
type Spawner struct {
	rng    entropy.Source
	ids    *ids.Generator
	traits []Trait
}

// NewSpawner creates a spawner drawing IDs from gen and traits from catalogue.
func NewSpawner(rng entropy.Source, gen *ids.Generator, catalogue []Trait) *Spawner {
	if len(catalogue) == 0 {
		catalogue = DefaultTraits
	}
	return &Spawner{rng: rng, ids: gen, traits: catalogue}
}

// Origin describes where and when a new character appears.
type Origin struct {
	Location    ids.FiefID
	Language    string
	Nationality string
	Now         clock.Date
}

// SpawnDependent creates an unattached adult dependent.
func (s *Spawner) SpawnDependent(o Origin) *Character {
	sex := SexMale
	if s.rng.Float() < 0.5 {
		sex = SexFemale
	}
	age := 16 + s.rng.Intn(35)
	c := s.base(o, sex, age)
	c.FamilyName = lastNames[s.rng.Intn(len(lastNames))]
	c.Kind = RoleDependent
	c.Dependent = NewDependentRole()
	return c
}

// SpawnPlayer creates a player character bound to the given login.
func (s *Spawner) SpawnPlayer(o Origin, playerID string, home ids.FiefID) *Character {
	c := s.base(o, SexMale, 25+s.rng.Intn(15))
	c.FamilyName = lastNames[s.rng.Intn(len(lastNames))]
	c.MaxHealth = math.Max(c.MaxHealth, 6)
	c.FamilyID = c.ID
	c.Kind = RolePlayer
	c.Player = &PlayerRole{
		PlayerID:      playerID,
		Purse:         10000,
		HomeFief:      home,
		AncestralHome: home,
	}
	return c
}

// SpawnRelative creates an adult family member of head (spouse, sibling or child).
func (s *Spawner) SpawnRelative(head *Character, sex Sex, age int, now clock.Date) *Character {
	c := s.base(Origin{Location: head.Location, Language: head.Language, Nationality: head.Nationality, Now: now}, sex, age)
	c.FamilyName = head.FamilyName
	c.FamilyID = head.FamilyID
	c.Kind = RoleDependent
	c.Dependent = NewDependentRole()
	c.Dependent.Employer = head.ID
	return c
}

// SpawnChild creates a newborn of mother and father in the father's family.
func (s *Spawner) SpawnChild(mother, father *Character, now clock.Date) *Character {
	sex := SexMale
	if s.rng.Float() < 0.5 {
		sex = SexFemale
	}
	c := s.base(Origin{Location: mother.Location, Language: father.Language, Nationality: father.Nationality, Now: now}, sex, 0)
	c.FamilyName = father.FamilyName
	c.FamilyID = father.FamilyID
	c.Father = father.ID
	c.Mother = mother.ID

	// Inherited ratings lean toward the parents' average.
	c.MaxHealth = s.inherit(mother.MaxHealth, father.MaxHealth)
	c.Virility = s.inherit(mother.Virility, father.Virility)
	c.Combat = s.inherit(mother.Combat, father.Combat)
	c.Management = s.inherit(mother.Management, father.Management)

	c.Kind = RoleDependent
	c.Dependent = NewDependentRole()
	return c
}

func (s *Spawner) base(o Origin, sex Sex, age int) *Character {
	c := &Character{
		ID:          s.ids.NextChar(),
		Sex:         sex,
		Birth:       o.Now.Add(-age * clock.SeasonsPerYear),
		Nationality: o.Nationality,
		Language:    o.Language,
		Alive:       true,
		MaxHealth:   s.rating(),
		Virility:    s.rating(),
		Combat:      s.rating(),
		Management:  s.rating(),
		Location:    o.Location,
		Traits:      s.rollTraits(),
		Ailments:    make(map[string]*Ailment),
	}
	if sex == SexFemale {
		c.FirstName = femaleNames[s.rng.Intn(len(femaleNames))]
	} else {
		c.FirstName = maleNames[s.rng.Intn(len(maleNames))]
	}
	c.Days = c.DaysAllowance()
	return c
}

// rating rolls a base rating on the 1–9 scale, weighted toward the middle.
func (s *Spawner) rating() float64 {
	return float64(1+s.rng.Intn(5)) + float64(s.rng.Intn(5))
}

func (s *Spawner) inherit(a, b float64) float64 {
	v := math.Round((a+b)/2 + float64(s.rng.Intn(3)-1))
	return math.Max(1, math.Min(9, v))
}

func (s *Spawner) rollTraits() []TraitLevel {
	n := min(1+s.rng.Intn(3), len(s.traits))
	pool := slices.Clone(s.traits)
	out := make([]TraitLevel, 0, n)
	for range n {
		i := s.rng.Intn(len(pool))
		out = append(out, TraitLevel{Trait: pool[i], Intensity: 1 + s.rng.Intn(9)})
		pool = slices.Delete(pool, i, i+1)
	}
	return out
}

var maleNames = []string{
	"Aldric", "Baldwin", "Conrad", "Drogo", "Edmund", "Fulk", "Geoffrey",
	"Hugh", "Ivo", "Joscelin", "Lambert", "Miles", "Neville", "Odo",
	"Piers", "Ranulf", "Simon", "Thibault", "Walter", "William",
}

var femaleNames = []string{
	"Adela", "Beatrice", "Cecily", "Denise", "Eleanor", "Felicia", "Gundred",
	"Hawise", "Isabel", "Joan", "Lucia", "Matilda", "Nichola", "Petronilla",
	"Rohese", "Sybil", "Agnes", "Emma", "Alice", "Margery",
}

var lastNames = []string{
	"de Warenne", "Bigod", "de Clare", "Marshal", "de Lacy", "Mortimer",
	"FitzAlan", "de Vere", "Beaumont", "de Ferrers", "Mowbray", "Percy",
	"de Braose", "Giffard", "Mandeville", "de Montfort", "Basset", "Lovel",
}
