// Package clock tracks the game calendar: a year and one of four seasons.
// One season passes per season tick.
package clock

import "fmt"

// Season constants.
const (
	SeasonSpring uint8 = 0
	SeasonSummer uint8 = 1
	SeasonAutumn uint8 = 2
	SeasonWinter uint8 = 3
)

// SeasonsPerYear is the number of season ticks in a game year.
const SeasonsPerYear = 4

// SeasonName returns a human-readable season name.
func SeasonName(season uint8) string {
	switch season {
	case SeasonSpring:
		return "Spring"
	case SeasonSummer:
		return "Summer"
	case SeasonAutumn:
		return "Autumn"
	case SeasonWinter:
		return "Winter"
	default:
		return "Unknown"
	}
}

// Date is a point on the game calendar.
type Date struct {
	Year   int   `json:"year"`
	Season uint8 `json:"season"`
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	return d.Season < o.Season
}

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool {
	return o.Before(d)
}

// Add returns the date n seasons later (n may be negative).
func (d Date) Add(seasons int) Date {
	total := d.Year*SeasonsPerYear + int(d.Season) + seasons
	year := total / SeasonsPerYear
	season := total % SeasonsPerYear
	if season < 0 {
		season += SeasonsPerYear
		year--
	}
	return Date{Year: year, Season: uint8(season)}
}

// SeasonsUntil returns the number of seasons from d to o.
func (d Date) SeasonsUntil(o Date) int {
	return (o.Year*SeasonsPerYear + int(o.Season)) - (d.Year*SeasonsPerYear + int(d.Season))
}

// String returns e.g. "Autumn 1194".
func (d Date) String() string {
	return fmt.Sprintf("%s %d", SeasonName(d.Season), d.Year)
}

// AgeAt returns whole years elapsed between birth and now.
// A birthday falls in the birth season; before it the age is one lower.
func AgeAt(birth, now Date) int {
	age := now.Year - birth.Year
	if now.Season < birth.Season {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// TravelModifier returns the movement cost multiplier for a season.
func TravelModifier(season uint8) float64 {
	switch season {
	case SeasonAutumn:
		return 1.25
	case SeasonWinter:
		return 1.5
	default:
		return 1.0
	}
}

// Clock holds the current date and the year the game started.
type Clock struct {
	StartYear int  `json:"start_year"`
	Now       Date `json:"now"`
}

// New creates a clock at spring of startYear.
func New(startYear int) *Clock {
	return &Clock{StartYear: startYear, Now: Date{Year: startYear, Season: SeasonSpring}}
}

// Advance moves to the next season. Winter rolls over into spring of the next year.
func (c *Clock) Advance() Date {
	if c.Now.Season >= SeasonWinter {
		c.Now.Season = SeasonSpring
		c.Now.Year++
	} else {
		c.Now.Season++
	}
	return c.Now
}

// Elapsed returns the number of seasons since the game started.
func (c *Clock) Elapsed() int {
	return Date{Year: c.StartYear}.SeasonsUntil(c.Now)
}

// TravelModifier returns the movement cost multiplier for the current season.
func (c *Clock) TravelModifier() float64 {
	return TravelModifier(c.Now.Season)
}
