package ids

import "testing"

func TestGeneratorNeverReuses(t *testing.T) {
	g := NewGenerator()
	seen := make(map[CharID]bool)
	for i := 0; i < 100; i++ {
		id := g.NextChar()
		if seen[id] {
			t.Fatalf("id %s issued twice", id)
		}
		seen[id] = true
	}
	if got := g.NextFief(); got != "Fief_1" {
		t.Fatalf("first fief id = %s, want Fief_1", got)
	}
}

func TestObserveSkipsLoadedIDs(t *testing.T) {
	g := NewGenerator()
	g.Observe("Char_41")
	if got := g.NextChar(); got != "Char_42" {
		t.Fatalf("NextChar = %s, want Char_42", got)
	}
	g.Observe("Char_3")
	if got := g.NextChar(); got != "Char_43" {
		t.Fatalf("NextChar after lower observe = %s, want Char_43", got)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	g := NewGenerator()
	g.NextArmy()
	g.NextArmy()
	g.NextEntry()

	h := NewGenerator()
	h.Restore(g.Counters())
	if got := h.NextArmy(); got != "Army_3" {
		t.Fatalf("NextArmy = %s, want Army_3", got)
	}
	if got := h.NextEntry(); got != 2 {
		t.Fatalf("NextEntry = %d, want 2", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
		n    uint64
		ok   bool
	}{
		{"Char_7", KindCharacter, 7, true},
		{"Siege_120", KindSiege, 120, true},
		{"nope", "", 0, false},
		{"Char_", "", 0, false},
		{"_5", "", 0, false},
		{"Char_x", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			kind, n, ok := Parse(tt.in)
			if ok != tt.ok || kind != tt.kind || n != tt.n {
				t.Fatalf("Parse(%q) = %q, %d, %v; want %q, %d, %v", tt.in, kind, n, ok, tt.kind, tt.n, tt.ok)
			}
		})
	}
}
