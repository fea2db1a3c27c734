package character

import (
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/clock"
)

// Stat names a quantity that traits can modify.
type Stat uint8

const (
	StatBattle Stat = iota
	StatSiege
	StatManagement
	StatDeath
	StatVirility
	StatTime
	StatSalary
	StatFiefExpense
	StatFiefLoyalty
	StatNPCHire
)

// Trait is a named bundle of stat modifiers. Weights are fractions (0.2 = +20%).
type Trait struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Effects map[Stat]float64 `json:"effects"`
}

// TraitLevel pairs a trait with the intensity a character has it at (1–9).
type TraitLevel struct {
	Trait     Trait `json:"trait"`
	Intensity int   `json:"intensity"`
}

// intensityScale maps intensity to a multiplier; 9 is full strength.
func intensityScale(intensity int) float64 {
	if intensity == 9 {
		return 1.0
	}
	return float64(intensity) * 0.111
}

// TraitEffect sums the modifiers for stat across all of the character's traits.
func (c *Character) TraitEffect(stat Stat) float64 {
	total := 0.0
	for _, tl := range c.Traits {
		if w, ok := tl.Trait.Effects[stat]; ok {
			total += w * intensityScale(tl.Intensity)
		}
	}
	return total
}

// DefaultTraits is the catalogue new characters draw from.
var DefaultTraits = []Trait{
	{ID: "trait_brave", Name: "Brave", Effects: map[Stat]float64{StatBattle: 0.15, StatDeath: 0.05}},
	{ID: "trait_coward", Name: "Cowardly", Effects: map[Stat]float64{StatBattle: -0.2, StatDeath: -0.05}},
	{ID: "trait_robust", Name: "Robust", Effects: map[Stat]float64{StatDeath: -0.25, StatVirility: 0.1}},
	{ID: "trait_sickly", Name: "Sickly", Effects: map[Stat]float64{StatDeath: 0.3, StatVirility: -0.1}},
	{ID: "trait_shrewd", Name: "Shrewd", Effects: map[Stat]float64{StatManagement: 0.2, StatFiefExpense: -0.1}},
	{ID: "trait_idle", Name: "Idle", Effects: map[Stat]float64{StatTime: -0.1, StatManagement: -0.1}},
	{ID: "trait_energetic", Name: "Energetic", Effects: map[Stat]float64{StatTime: 0.1}},
	{ID: "trait_greedy", Name: "Greedy", Effects: map[Stat]float64{StatSalary: 0.2, StatFiefLoyalty: -0.1}},
	{ID: "trait_charming", Name: "Charming", Effects: map[Stat]float64{StatNPCHire: -0.1, StatFiefLoyalty: 0.1}},
	{ID: "trait_engineer", Name: "Siege Engineer", Effects: map[Stat]float64{StatSiege: 0.25}},
}

// Ailment is an injury or illness that reduces health until it heals.
type Ailment struct {
	ID            string     `json:"id"`
	Description   string     `json:"description"`
	When          clock.Date `json:"when"`
	Effect        int        `json:"effect"`         // Current health penalty
	MinimumEffect int        `json:"minimum_effect"` // Floor; a permanent ailment never heals below it
}

// Update heals the ailment by one step. Returns true when it should be removed,
// which happens only once the effect has reached zero.
func (a *Ailment) Update() bool {
	if a.Effect > a.MinimumEffect {
		a.Effect--
	}
	return a.Effect <= 0
}

// AddAilment attaches an ailment, replacing one with the same ID.
func (c *Character) AddAilment(a *Ailment) {
	if c.Ailments == nil {
		c.Ailments = make(map[string]*Ailment)
	}
	c.Ailments[a.ID] = a
}

// UpdateAilments heals every ailment by one season and drops those flagged for removal.
func (c *Character) UpdateAilments() {
	for id, a := range c.Ailments {
		if a.Update() {
			delete(c.Ailments, id)
		}
	}
}

// AilmentTotal sums the health penalty of all current ailments.
func (c *Character) AilmentTotal() float64 {
	total := 0
	for _, a := range c.Ailments {
		total += a.Effect
	}
	return float64(total)
}
