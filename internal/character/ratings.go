package character

import (
	"math"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/clock"
)

// Context carries the world facts a rating needs beyond the character record.
type Context struct {
	Now         clock.Date
	RankStature float64 // Stature bonus of the highest title held (0 if none)
}

// Death rate increments per point of health deficit, per season, in percent.
const (
	DeathIncrementMale   = 2.8
	DeathIncrementFemale = 2.5
)

const (
	armourBonus      = 5.0
	baseDays         = 90.0
	statureBonusFrom = 4.0  // Stature ranks above this sway salary negotiations
	statureSwing     = 0.04 // Per rank above statureBonusFrom
)

// NationalityCombatBonus is added to combat value by nationality.
var NationalityCombatBonus = map[string]float64{
	"Eng": 1,
	"Fr":  1.5,
	"Sco": 2,
}

// healthAgeMultiplier returns the fraction of max health available at age.
func healthAgeMultiplier(age int) float64 {
	switch {
	case age < 1:
		return 0.25
	case age < 5:
		return 0.5
	case age < 10:
		return 0.8
	case age < 20:
		return 0.9
	case age < 35:
		return 1.0
	case age < 40:
		return 0.95
	case age < 45:
		return 0.9
	case age < 50:
		return 0.85
	case age < 55:
		return 0.75
	case age < 60:
		return 0.65
	case age < 70:
		return 0.55
	default:
		return 0.35
	}
}

// statureAgeBonus rewards seniority.
func statureAgeBonus(age int) float64 {
	switch {
	case age <= 10:
		return 0
	case age <= 20:
		return 1
	case age <= 30:
		return 2
	case age <= 40:
		return 3
	case age <= 60:
		return 4
	default:
		return 5
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Health returns current health including ailments, within [0, MaxHealth].
func (c *Character) Health(ctx Context) float64 {
	if !c.Alive {
		return 0
	}
	h := healthAgeMultiplier(c.Age(ctx.Now))*c.MaxHealth - c.AilmentTotal()
	return clamp(h, 0, c.MaxHealth)
}

// BaseHealth returns health from age alone, ignoring ailments.
func (c *Character) BaseHealth(now clock.Date) float64 {
	return clamp(healthAgeMultiplier(c.Age(now))*c.MaxHealth, 0, c.MaxHealth)
}

// Stature returns current social standing within [1, 9].
func (c *Character) Stature(ctx Context) float64 {
	return c.stature(ctx, true)
}

// BaseStature returns standing from rank, age and sex alone, ignoring the
// stature modifier.
func (c *Character) BaseStature(ctx Context) float64 {
	return c.stature(ctx, false)
}

func (c *Character) stature(ctx Context, current bool) float64 {
	s := ctx.RankStature + statureAgeBonus(c.Age(ctx.Now))
	if c.IsFemale() {
		s -= 6
	}
	if current {
		s += c.StatureModifier
	}
	return clamp(s, 1, 9)
}

// LeadershipValue rates command in a battle, or in a storm assault when isStorm.
func (c *Character) LeadershipValue(ctx Context, isStorm bool) float64 {
	lv := (c.Combat + c.Management + c.Stature(ctx)) / 3
	stat := StatBattle
	if isStorm {
		stat = StatSiege
	}
	return lv * (1 + c.TraitEffect(stat))
}

// CombatValue rates personal fighting ability.
func (c *Character) CombatValue(ctx Context) float64 {
	cv := (c.Combat + c.Health(ctx)) / 2
	return cv + armourBonus + NationalityCombatBonus[c.Nationality]
}

// FiefManagementRating rates suitability as a bailiff.
func (c *Character) FiefManagementRating(ctx Context) float64 {
	r := (c.Management + c.Stature(ctx)) / 2
	return r * (1 + c.TraitEffect(StatManagement))
}

// ArmyLeadershipRating rates suitability as an army leader.
func (c *Character) ArmyLeadershipRating(ctx Context) float64 {
	r := (c.Management + c.Stature(ctx) + c.Combat) / 3
	return r * (1 + c.TraitEffect(StatBattle) + c.TraitEffect(StatSiege))
}

// DaysAllowance returns the days available per season.
func (c *Character) DaysAllowance() float64 {
	return math.Max(1, baseDays*(1+c.TraitEffect(StatTime)))
}

// DeathProbability returns the per-season chance of death, in percent.
// isBirth applies when evaluated on a birth event; stillbornMother doubles it.
func (c *Character) DeathProbability(ctx Context, isBirth, stillbornMother bool) float64 {
	increment := DeathIncrementMale
	if c.IsFemale() {
		increment = DeathIncrementFemale
	}
	p := (10 - c.Health(ctx)) * increment
	p *= 1 + c.TraitEffect(StatDeath)
	if isBirth {
		p *= 1.5
	}
	if stillbornMother {
		p *= 2
	}
	return math.Max(0, p)
}

// Family allowance bases by relationship to the family head.
const (
	AllowanceHeir     = 40000.0
	AllowanceSpouse   = 30000.0
	AllowanceSon      = 20000.0
	AllowanceDaughter = 15000.0
	AllowanceOther    = 10000.0
)

// Relation describes how a family member relates to the family head.
type Relation uint8

const (
	RelationOther Relation = iota
	RelationHeir
	RelationSpouse
	RelationSon
	RelationDaughter
)

// FamilyAllowance returns the seasonal allowance for a family member; minors receive a fraction.
func FamilyAllowance(rel Relation, age int) float64 {
	base := AllowanceOther
	switch rel {
	case RelationHeir:
		base = AllowanceHeir
	case RelationSpouse:
		base = AllowanceSpouse
	case RelationSon:
		base = AllowanceSon
	case RelationDaughter:
		base = AllowanceDaughter
	}
	switch {
	case age <= 7:
		return base * 0.25
	case age <= 14:
		return base * 0.5
	case age <= 21:
		return base * 0.75
	default:
		return base
	}
}

// TraitDerivedSalary is what the character believes its skills are worth.
func (c *Character) TraitDerivedSalary(ctx Context) float64 {
	best := math.Max(c.FiefManagementRating(ctx), c.ArmyLeadershipRating(ctx))
	return (1000 + 750*best) * (1 + c.TraitEffect(StatSalary))
}

// statureSalaryBonus is the negotiating advantage of a high-stature party.
func statureSalaryBonus(stature float64) float64 {
	return math.Max(0, stature-statureBonusFrom) * statureSwing
}

// Salary returns the minimum acceptable offer from a hirer.
// current is the salary paid by the present employer (0 if unemployed), and
// employerStature that employer's stature (0 if unemployed).
func (c *Character) Salary(ctx Context, hirerStature, employerStature, current float64) float64 {
	s := math.Max(c.TraitDerivedSalary(ctx), current*1.05*1.11)
	s *= 1 - (statureSalaryBonus(hirerStature) - statureSalaryBonus(employerStature))
	return math.Round(s)
}
