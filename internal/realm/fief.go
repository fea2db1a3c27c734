// Package realm provides the landholdings and military entities the
// character rules operate on: fiefs, provinces, kingdoms, armies and sieges.
package realm

import (
	"fmt"
	"math"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/world"
)

// FiefStatus describes the public order of a fief.
type FiefStatus uint8

const (
	StatusCalm FiefStatus = iota
	StatusUnrest
	StatusRebellion
)

// String returns the status name.
func (s FiefStatus) String() string {
	switch s {
	case StatusUnrest:
		return "unrest"
	case StatusRebellion:
		return "rebellion"
	default:
		return "calm"
	}
}

// Budget is the seasonal spending plan of a fief.
type Budget struct {
	TaxRate        float64 `json:"tax_rate"`       // Percent of GDP, 0–100
	Officials      float64 `json:"officials"`      // Spend per season
	Garrison       float64 `json:"garrison"`       // Spend per season
	Infrastructure float64 `json:"infrastructure"` // Spend per season
	Keep           float64 `json:"keep"`           // Spend per season
}

// Spend returns the total of the four spending lines.
func (b Budget) Spend() float64 {
	return b.Officials + b.Garrison + b.Infrastructure + b.Keep
}

// Validate checks the budget lines are in range.
func (b Budget) Validate() error {
	if b.TaxRate < 0 || b.TaxRate > 100 {
		return fmt.Errorf("tax rate %.1f out of range 0–100", b.TaxRate)
	}
	if b.Officials < 0 || b.Garrison < 0 || b.Infrastructure < 0 || b.Keep < 0 {
		return fmt.Errorf("spending lines must not be negative")
	}
	return nil
}

// Detachment is a body of troops left in a fief for someone to collect.
type Detachment struct {
	ID          ids.DetachmentID `json:"id"`
	Troops      Troops           `json:"troops"`
	LeftBy      ids.CharID       `json:"left_by"`
	LeftFor     ids.CharID       `json:"left_for"`
	Nationality string           `json:"nationality"`
	Days        float64          `json:"days"`
}

// Fief is a landholding: one hex of the realm.
type Fief struct {
	ID         ids.FiefID     `json:"id"`
	Name       string         `json:"name"`
	Province   ids.ProvinceID `json:"province"`
	Coord      world.HexCoord `json:"coord"`
	Terrain    world.Terrain  `json:"terrain"`
	Language   string         `json:"language"`
	Population uint32         `json:"population"`

	Owner       ids.CharID `json:"owner,omitempty"`
	TitleHolder ids.CharID `json:"title_holder,omitempty"`
	Bailiff     ids.CharID `json:"bailiff,omitempty"`

	Treasury     float64    `json:"treasury"`
	Loyalty      float64    `json:"loyalty"`    // 0–9
	Industry     float64    `json:"industry"`   // Infrastructure level
	KeepLevel    float64    `json:"keep_level"` // Fortification level
	Budget       Budget     `json:"budget"`
	Status       FiefStatus `json:"status"`
	Recruited    uint32     `json:"recruited"` // Troops raised this season
	LastIncome   float64    `json:"last_income"`
	LastExpenses float64    `json:"last_expenses"`
	BailiffDays  float64    `json:"bailiff_days"` // Days the bailiff spent in the fief this season

	Characters  []ids.CharID `json:"characters,omitempty"` // Present in the fief
	Barred      []ids.CharID `json:"barred,omitempty"`
	Armies      []ids.ArmyID `json:"armies,omitempty"`
	Detachments []Detachment `json:"detachments,omitempty"`
	Gaol        []ids.CharID `json:"gaol,omitempty"`
	Siege       ids.SiegeID  `json:"siege,omitempty"`
}

// Economic constants.
const (
	gdpPerHead   = 50.0
	loyaltyDrift = 0.25 // Fraction of the gap to target loyalty closed per season
	growthRate   = 0.005
	recruitShare = 20 // One in this many people can be raised as troops per season
)

// NewFief creates a fief with a default budget.
func NewFief(id ids.FiefID, name string, province ids.ProvinceID, coord world.HexCoord, terrain world.Terrain, language string, population uint32) *Fief {
	f := &Fief{
		ID:         id,
		Name:       name,
		Province:   province,
		Coord:      coord,
		Terrain:    terrain,
		Language:   language,
		Population: population,
		Loyalty:    5,
		KeepLevel:  2,
		Industry:   1,
		Treasury:   5000,
	}
	f.Budget = f.DefaultBudget()
	return f
}

// GDP returns the fief's seasonal output.
func (f *Fief) GDP() float64 {
	return float64(f.Population) * gdpPerHead * (1 + f.Industry/10)
}

// DefaultBudget returns a balanced starting plan for the fief's size.
func (f *Fief) DefaultBudget() Budget {
	gdp := f.GDP()
	return Budget{
		TaxRate:        5,
		Officials:      math.Round(gdp * 0.01),
		Garrison:       math.Round(gdp * 0.01),
		Infrastructure: math.Round(gdp * 0.005),
		Keep:           math.Round(gdp * 0.005),
	}
}

// CalcIncome returns seasonal tax income given the manager's fief management rating.
func (f *Fief) CalcIncome(management float64) float64 {
	mod := 0.75 + management/20
	if f.Status == StatusRebellion {
		return 0
	}
	return math.Round(f.GDP() * f.Budget.TaxRate / 100 * mod)
}

// CalcExpenses returns the budgeted spend plus extra (salaries, allowances).
func (f *Fief) CalcExpenses(extra float64) float64 {
	return f.Budget.Spend() + extra
}

// ApplyBudget replaces the spending plan after validation.
func (f *Fief) ApplyBudget(b Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	f.Budget = b
	return nil
}

// AutoAdjustExpenditure trims spending so that income and treasury cover
// expenses. Lines are cut in order keep, infrastructure, garrison, officials.
// Returns the shortfall that remains after every line has been cut to zero.
func (f *Fief) AutoAdjustExpenditure(management, extra float64) float64 {
	available := f.CalcIncome(management) + f.Treasury - extra
	over := f.Budget.Spend() - math.Max(0, available)
	for _, line := range []*float64{&f.Budget.Keep, &f.Budget.Infrastructure, &f.Budget.Garrison, &f.Budget.Officials} {
		if over <= 0 {
			break
		}
		cut := math.Min(*line, over)
		*line -= cut
		over -= cut
	}
	if available < 0 {
		return math.Round(-available)
	}
	return 0
}

// AdjustTreasury adds delta (which may be negative) to the treasury.
func (f *Fief) AdjustTreasury(delta float64) {
	f.Treasury += delta
}

// SeasonReport summarises a fief's season.
type SeasonReport struct {
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	OverlordTax float64 `json:"overlord_tax"`
}

// UpdateSeason runs the fief economy for one season. management is the rating
// of whoever runs the fief (bailiff or owner); extra is salaries and allowances
// charged to this fief; overlordRate is the province tax percentage.
func (f *Fief) UpdateSeason(management, extra, overlordRate float64) SeasonReport {
	income := f.CalcIncome(management)
	expenses := f.CalcExpenses(extra)
	tax := math.Round(income * overlordRate / 100)

	f.Treasury += income - expenses - tax
	f.LastIncome = income
	f.LastExpenses = expenses

	// Investment.
	gdp := math.Max(1, f.GDP())
	f.Industry += f.Budget.Infrastructure / gdp * 20
	f.KeepLevel += f.Budget.Keep/gdp*20 - 0.05
	f.KeepLevel = math.Max(0, f.KeepLevel)

	// Loyalty drifts toward a target set by management, tax and officials.
	target := 5 + (management-5)*0.5 - (f.Budget.TaxRate-5)*0.2 + f.Budget.Officials/gdp*100
	if f.Treasury < 0 {
		target -= 2
	}
	target = math.Max(0, math.Min(9, target))
	f.Loyalty += (target - f.Loyalty) * loyaltyDrift
	f.Loyalty = math.Max(0, math.Min(9, f.Loyalty))

	switch {
	case f.Loyalty < 1:
		f.Status = StatusRebellion
	case f.Loyalty < 2.5:
		f.Status = StatusUnrest
	default:
		f.Status = StatusCalm
	}

	if f.Status == StatusCalm {
		f.Population += uint32(float64(f.Population) * growthRate)
	}
	f.Recruited = 0
	f.BailiffDays = 0

	return SeasonReport{Income: income, Expenses: expenses, OverlordTax: tax}
}

// MilitiaAvailable returns how many more troops can be raised this season.
func (f *Fief) MilitiaAvailable() uint32 {
	limit := f.Population / recruitShare
	if f.Recruited >= limit {
		return 0
	}
	return limit - f.Recruited
}

// GarrisonStrength returns the number of defenders the garrison spend supports.
func (f *Fief) GarrisonStrength() uint32 {
	return uint32(math.Max(0, f.Budget.Garrison) / 10)
}

// AddCharacter records presence. It is a no-op if already present.
func (f *Fief) AddCharacter(id ids.CharID) {
	f.Characters = ids.Add(f.Characters, id)
}

// RemoveCharacter drops presence.
func (f *Fief) RemoveCharacter(id ids.CharID) {
	f.Characters = ids.Remove(f.Characters, id)
}

// IsBarred reports whether the character may not enter the keep.
func (f *Fief) IsBarred(id ids.CharID) bool {
	for _, b := range f.Barred {
		if b == id {
			return true
		}
	}
	return false
}

// Bar adds id to the barred list.
func (f *Fief) Bar(id ids.CharID) {
	f.Barred = ids.Add(f.Barred, id)
}

// Unbar removes id from the barred list.
func (f *Fief) Unbar(id ids.CharID) {
	f.Barred = ids.Remove(f.Barred, id)
}

// AddDetachment stores troops for later pickup.
func (f *Fief) AddDetachment(d Detachment) {
	f.Detachments = append(f.Detachments, d)
}

// TakeDetachment removes and returns a detachment by ID.
func (f *Fief) TakeDetachment(id ids.DetachmentID) (Detachment, bool) {
	for i, d := range f.Detachments {
		if d.ID == id {
			f.Detachments = append(f.Detachments[:i], f.Detachments[i+1:]...)
			return d, true
		}
	}
	return Detachment{}, false
}
