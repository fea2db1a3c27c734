package protocol

import (
	"math"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/engine"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/world"
)

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// TraitView is one trait at its intensity.
type TraitView struct {
	Name      string `json:"name"`
	Intensity int    `json:"intensity"`
}

// CharacterView is what a client sees of a character. Household details are
// only filled in for the owner's own people.
type CharacterView struct {
	ID          ids.CharID   `json:"id"`
	Name        string       `json:"name"`
	Sex         string       `json:"sex"`
	Age         int          `json:"age"`
	Nationality string       `json:"nationality"`
	Alive       bool         `json:"alive"`
	Role        string       `json:"role"`
	Location    ids.FiefID   `json:"location"`
	Stature     float64      `json:"stature"`
	Titles      []string     `json:"titles,omitempty"`
	Spouse      ids.CharID   `json:"spouse,omitempty"`
	Captor      ids.CharID   `json:"captor,omitempty"`
	Full        bool         `json:"full"`
	Health      float64      `json:"health,omitempty"`
	MaxHealth   float64      `json:"maxHealth,omitempty"`
	BaseStature float64      `json:"baseStature,omitempty"`
	Days        float64      `json:"days,omitempty"`
	Management  float64      `json:"management,omitempty"`
	Combat      float64      `json:"combat,omitempty"`
	Language    string       `json:"language,omitempty"`
	InKeep      bool         `json:"inKeep,omitempty"`
	Route       []ids.FiefID `json:"route,omitempty"`
	Traits      []TraitView  `json:"traits,omitempty"`
	Army        ids.ArmyID   `json:"army,omitempty"`
	Father      ids.CharID   `json:"father,omitempty"`
	Mother      ids.CharID   `json:"mother,omitempty"`
	Fiance      ids.CharID   `json:"fiance,omitempty"`
	Pregnant    bool         `json:"pregnant,omitempty"`
	Employer    ids.CharID   `json:"employer,omitempty"`
	Salary      float64      `json:"salary,omitempty"`
	IsHeir      bool         `json:"isHeir,omitempty"`
	InEntourage bool         `json:"inEntourage,omitempty"`
	Purse       float64      `json:"purse,omitempty"`
	HomeFief    ids.FiefID   `json:"homeFief,omitempty"`
	Fiefs       []ids.FiefID `json:"fiefs,omitempty"`
	Armies      []ids.ArmyID `json:"armies,omitempty"`
	Dependents  []ids.CharID `json:"dependents,omitempty"`
	Entourage   []ids.CharID `json:"entourage,omitempty"`
	Captives    []ids.CharID `json:"captives,omitempty"`
}

// NewCharacterView builds the view. full reveals the household details.
func NewCharacterView(g *engine.Game, c *character.Character, full bool) CharacterView {
	sex := "male"
	if c.IsFemale() {
		sex = "female"
	}
	v := CharacterView{
		ID:          c.ID,
		Name:        c.FullName(),
		Sex:         sex,
		Age:         c.Age(g.Now()),
		Nationality: c.Nationality,
		Alive:       c.Alive,
		Role:        c.Kind.String(),
		Location:    c.Location,
		Stature:     round1(g.Stature(c)),
		Titles:      c.Titles,
		Spouse:      c.Spouse,
		Captor:      c.Captor,
		Full:        full,
	}
	if !full {
		return v
	}
	v.Health = round1(g.Health(c))
	v.MaxHealth = c.MaxHealth
	v.BaseStature = round1(c.BaseStature(g.RatingContext(c)))
	v.Days = round1(c.Days)
	v.Management = c.Management
	v.Combat = c.Combat
	v.Language = c.Language
	v.InKeep = c.InKeep
	v.Route = c.Route
	v.Army = c.Army
	v.Father, v.Mother, v.Fiance = c.Father, c.Mother, c.Fiance
	v.Pregnant = c.Pregnant
	for _, t := range c.Traits {
		v.Traits = append(v.Traits, TraitView{Name: t.Trait.Name, Intensity: t.Intensity})
	}
	switch {
	case c.IsDependent():
		d := c.Dependent
		v.Employer, v.Salary, v.IsHeir, v.InEntourage = d.Employer, d.Salary, d.IsHeir, d.InEntourage
	case c.IsPlayer():
		p := c.Player
		v.Purse, v.HomeFief = p.Purse, p.HomeFief
		v.Fiefs, v.Armies = p.Fiefs, p.Armies
		v.Dependents, v.Entourage, v.Captives = p.Dependents, p.Entourage, p.Captives
	}
	return v
}

// BudgetView is a fief's spending plan.
type BudgetView struct {
	TaxRate        float64 `json:"taxRate"`
	Officials      float64 `json:"officials"`
	Garrison       float64 `json:"garrison"`
	Infrastructure float64 `json:"infrastructure"`
	Keep           float64 `json:"keep"`
}

// FiefView is what a client sees of a fief. Accounts and occupants are only
// filled in for the owner.
type FiefView struct {
	ID          ids.FiefID     `json:"id"`
	Name        string         `json:"name"`
	Province    ids.ProvinceID `json:"province"`
	Owner       ids.CharID     `json:"owner,omitempty"`
	TitleHolder ids.CharID     `json:"titleHolder,omitempty"`
	Bailiff     ids.CharID     `json:"bailiff,omitempty"`
	Terrain     string         `json:"terrain"`
	Q           int            `json:"q"`
	R           int            `json:"r"`
	Language    string         `json:"language"`
	Population  uint32         `json:"population"`
	Status      string         `json:"status"`
	Loyalty     float64        `json:"loyalty"`
	KeepLevel   float64        `json:"keepLevel"`
	Siege       ids.SiegeID    `json:"siege,omitempty"`
	Full        bool           `json:"full"`

	Treasury     float64      `json:"treasury,omitempty"`
	GDP          float64      `json:"gdp,omitempty"`
	Industry     float64      `json:"industry,omitempty"`
	Budget       *BudgetView  `json:"budget,omitempty"`
	LastIncome   float64      `json:"lastIncome,omitempty"`
	LastExpenses float64      `json:"lastExpenses,omitempty"`
	Militia      uint32       `json:"militia,omitempty"`
	Characters   []ids.CharID `json:"characters,omitempty"`
	Barred       []ids.CharID `json:"barred,omitempty"`
	Armies       []ids.ArmyID `json:"armies,omitempty"`
	Gaol         []ids.CharID `json:"gaol,omitempty"`
}

// NewFiefView builds the view.
func NewFiefView(f *realm.Fief, full bool) FiefView {
	v := FiefView{
		ID:          f.ID,
		Name:        f.Name,
		Province:    f.Province,
		Owner:       f.Owner,
		TitleHolder: f.TitleHolder,
		Bailiff:     f.Bailiff,
		Terrain:     world.TerrainName(f.Terrain),
		Q:           f.Coord.Q,
		R:           f.Coord.R,
		Language:    f.Language,
		Population:  f.Population,
		Status:      f.Status.String(),
		Loyalty:     round1(f.Loyalty),
		KeepLevel:   round1(f.KeepLevel),
		Siege:       f.Siege,
		Full:        full,
	}
	if !full {
		return v
	}
	b := BudgetView(f.Budget)
	v.Treasury = f.Treasury
	v.GDP = f.GDP()
	v.Industry = f.Industry
	v.Budget = &b
	v.LastIncome, v.LastExpenses = f.LastIncome, f.LastExpenses
	v.Militia = f.MilitiaAvailable()
	v.Characters, v.Barred, v.Armies, v.Gaol = f.Characters, f.Barred, f.Armies, f.Gaol
	return v
}

// ArmyView is an army's state. Troop counts are by type, in the order
// knights, men-at-arms, light cavalry, longbowmen, crossbowmen, foot, rabble.
type ArmyView struct {
	ID          ids.ArmyID   `json:"id"`
	Owner       ids.CharID   `json:"owner"`
	Leader      ids.CharID   `json:"leader,omitempty"`
	Location    ids.FiefID   `json:"location"`
	Nationality string       `json:"nationality"`
	Troops      realm.Troops `json:"troops"`
	Total       uint32       `json:"total"`
	Days        float64      `json:"days"`
	Aggression  uint8        `json:"aggression"`
	CombatOdds  uint8        `json:"combatOdds"`
	Maintained  bool         `json:"maintained"`
	Upkeep      float64      `json:"upkeep"`
}

// NewArmyView builds the view.
func NewArmyView(a *realm.Army) ArmyView {
	return ArmyView{
		ID:          a.ID,
		Owner:       a.Owner,
		Leader:      a.Leader,
		Location:    a.Location,
		Nationality: a.Nationality,
		Troops:      a.Troops,
		Total:       a.TroopCount(),
		Days:        round1(a.Days),
		Aggression:  a.Aggression,
		CombatOdds:  a.CombatOdds,
		Maintained:  a.Maintained,
		Upkeep:      a.MaintenanceCost(),
	}
}

// SiegeView is a siege's progress.
type SiegeView struct {
	ID              ids.SiegeID `json:"id"`
	Fief            ids.FiefID  `json:"fief"`
	BesiegingArmy   ids.ArmyID  `json:"besiegingArmy"`
	BesiegingPlayer ids.CharID  `json:"besiegingPlayer"`
	DefendingPlayer ids.CharID  `json:"defendingPlayer,omitempty"`
	Garrison        uint32      `json:"garrison"`
	KeepLevel       float64     `json:"keepLevel"`
	Start           string      `json:"start"`
	Rounds          int         `json:"rounds"`
	Seasons         int         `json:"seasons"`
	AttackerLosses  uint32      `json:"attackerLosses"`
	DefenderLosses  uint32      `json:"defenderLosses"`
}

// NewSiegeView builds the view.
func NewSiegeView(s *realm.Siege) SiegeView {
	return SiegeView{
		ID:              s.ID,
		Fief:            s.Fief,
		BesiegingArmy:   s.BesiegingArmy,
		BesiegingPlayer: s.BesiegingPlayer,
		DefendingPlayer: s.DefendingPlayer,
		Garrison:        s.Garrison,
		KeepLevel:       round1(s.KeepLevel),
		Start:           s.Start.String(),
		Rounds:          s.Rounds,
		Seasons:         s.Seasons,
		AttackerLosses:  s.AttackerLosses,
		DefenderLosses:  s.DefenderLosses,
	}
}

// DetachmentView is troops waiting in a fief.
type DetachmentView struct {
	ID      ids.DetachmentID `json:"id"`
	Troops  realm.Troops     `json:"troops"`
	Total   uint32           `json:"total"`
	LeftBy  ids.CharID       `json:"leftBy"`
	LeftFor ids.CharID       `json:"leftFor,omitempty"`
	Days    float64          `json:"days"`
}

// NewDetachmentView builds the view.
func NewDetachmentView(d realm.Detachment) DetachmentView {
	return DetachmentView{ID: d.ID, Troops: d.Troops, Total: d.Troops.Total(), LeftBy: d.LeftBy, LeftFor: d.LeftFor, Days: round1(d.Days)}
}

// JournalEntryView is one journal entry.
type JournalEntryView struct {
	ID            ids.EntryID       `json:"id"`
	Date          string            `json:"date"`
	Type          journal.EntryType `json:"type"`
	Description   string            `json:"description"`
	Location      ids.FiefID        `json:"location,omitempty"`
	Personae      []journal.Persona `json:"personae"`
	Viewed        bool              `json:"viewed"`
	Replied       bool              `json:"replied"`
	AwaitingReply bool              `json:"awaitingReply"`
}

// NewJournalEntryView builds the view.
func NewJournalEntryView(e journal.Entry) JournalEntryView {
	return JournalEntryView{
		ID:            e.ID,
		Date:          e.Date.String(),
		Type:          e.Type,
		Description:   e.Description,
		Location:      e.Location,
		Personae:      e.Personae,
		Viewed:        e.Viewed,
		Replied:       e.Replied,
		AwaitingReply: e.AwaitsReply(),
	}
}

// ProvinceView is a province and its fiefs.
type ProvinceView struct {
	ID          ids.ProvinceID `json:"id"`
	Name        string         `json:"name"`
	Kingdom     ids.KingdomID  `json:"kingdom"`
	Owner       ids.CharID     `json:"owner,omitempty"`
	TitleHolder ids.CharID     `json:"titleHolder,omitempty"`
	TaxRate     float64        `json:"taxRate"`
	Fiefs       []ids.FiefID   `json:"fiefs"`
}

// NewProvinceView builds the view from the game's fief list.
func NewProvinceView(g *engine.Game, p *realm.Province) ProvinceView {
	v := ProvinceView{ID: p.ID, Name: p.Name, Kingdom: p.Kingdom, Owner: p.Owner, TitleHolder: p.TitleHolder, TaxRate: p.TaxRate}
	for _, f := range g.Fiefs() {
		if f.Province == p.ID {
			v.Fiefs = append(v.Fiefs, f.ID)
		}
	}
	return v
}

// SeasonView summarises a season tick.
type SeasonView struct {
	Date            string     `json:"date"`
	Deaths          int        `json:"deaths"`
	Successions     int        `json:"successions"`
	ArmiesDisbanded int        `json:"armiesDisbanded"`
	SiegesEnded     int        `json:"siegesEnded"`
	EventsProcessed int        `json:"eventsProcessed"`
	Winner          ids.CharID `json:"winner,omitempty"`
}

// NewSeasonView builds the view.
func NewSeasonView(s engine.SeasonSummary) SeasonView {
	return SeasonView{
		Date:            s.Date.String(),
		Deaths:          s.Deaths,
		Successions:     s.Successions,
		ArmiesDisbanded: s.ArmiesDisbanded,
		SiegesEnded:     s.SiegesEnded,
		EventsProcessed: s.EventsProcessed,
		Winner:          s.Winner,
	}
}
