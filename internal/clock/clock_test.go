package clock

import "testing"

func TestAdvanceRollsYear(t *testing.T) {
	c := New(1194)
	for i := 0; i < 3; i++ {
		c.Advance()
	}
	if c.Now != (Date{Year: 1194, Season: SeasonWinter}) {
		t.Fatalf("after 3 advances Now = %v, want Winter 1194", c.Now)
	}
	c.Advance()
	if c.Now != (Date{Year: 1195, Season: SeasonSpring}) {
		t.Fatalf("after winter Now = %v, want Spring 1195", c.Now)
	}
	if got := c.Elapsed(); got != 4 {
		t.Fatalf("Elapsed = %d, want 4", got)
	}
}

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name  string
		birth Date
		now   Date
		want  int
	}{
		{"same season", Date{1170, SeasonSummer}, Date{1194, SeasonSummer}, 24},
		{"before birthday", Date{1170, SeasonSummer}, Date{1194, SeasonSpring}, 23},
		{"after birthday", Date{1170, SeasonSummer}, Date{1194, SeasonWinter}, 24},
		{"newborn", Date{1194, SeasonAutumn}, Date{1194, SeasonAutumn}, 0},
		{"future birth clamps", Date{1195, SeasonAutumn}, Date{1194, SeasonAutumn}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeAt(tt.birth, tt.now); got != tt.want {
				t.Fatalf("AgeAt = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDateArithmetic(t *testing.T) {
	d := Date{Year: 1194, Season: SeasonAutumn}
	if got := d.Add(3); got != (Date{1195, SeasonSummer}) {
		t.Fatalf("Add(3) = %v", got)
	}
	if got := d.Add(-3); got != (Date{1193, SeasonWinter}) {
		t.Fatalf("Add(-3) = %v", got)
	}
	if got := d.SeasonsUntil(d.Add(7)); got != 7 {
		t.Fatalf("SeasonsUntil = %d, want 7", got)
	}
	if !d.Before(d.Add(1)) || d.After(d.Add(1)) {
		t.Fatalf("ordering broken for %v", d)
	}
}

func TestTravelModifier(t *testing.T) {
	if TravelModifier(SeasonWinter) <= TravelModifier(SeasonSummer) {
		t.Fatalf("winter travel should cost more than summer")
	}
}
