package journal

import (
	"testing"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/clock"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
)

var spring1200 = clock.Date{Year: 1200, Season: clock.SeasonSpring}

func TestAppendRejectsOutOfOrder(t *testing.T) {
	j := New()
	if err := j.Append(Entry{ID: 2, Type: TypeGeneral}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Append(Entry{ID: 2}); err == nil {
		t.Fatalf("expected duplicate id to be rejected")
	}
	if err := j.Append(Entry{ID: 1}); err == nil {
		t.Fatalf("expected lower id to be rejected")
	}
	if j.Len() != 1 {
		t.Fatalf("Len = %d, want 1", j.Len())
	}
}

func TestGetReturnsCopy(t *testing.T) {
	j := New()
	_ = j.Append(Entry{ID: 1, Description: "a death", Personae: []Persona{{Character: "Char_1", Role: RoleSubject}}})
	e, _ := j.Get(1)
	e.Description = "mutated"
	e.Personae[0].Character = "Char_9"

	again, _ := j.Get(1)
	if again.Description != "a death" || again.Personae[0].Character != "Char_1" {
		t.Fatalf("stored entry was mutated through a copy: %+v", again)
	}
}

func TestOnlyFlagsMutate(t *testing.T) {
	j := New()
	_ = j.Append(Entry{ID: 1, Type: TypeProposal, Personae: []Persona{{Character: "Char_2", Role: RoleRecipient}}})
	if !j.MarkViewed(1) {
		t.Fatalf("MarkViewed failed")
	}
	if !j.MarkReplied(1) {
		t.Fatalf("first MarkReplied should succeed")
	}
	if j.MarkReplied(1) {
		t.Fatalf("second MarkReplied should fail")
	}
	if j.MarkViewed(42) {
		t.Fatalf("MarkViewed on missing entry should fail")
	}
	e, _ := j.Get(1)
	if !e.Viewed || !e.Replied || e.AwaitsReply() {
		t.Fatalf("flags = viewed %v replied %v", e.Viewed, e.Replied)
	}
}

func TestFindMailbox(t *testing.T) {
	j := New()
	_ = j.Append(Entry{ID: 1, Type: TypeDeath, Personae: []Persona{{Character: "Char_1", Role: RoleSubject}}})
	_ = j.Append(Entry{ID: 2, Type: TypeProposal, Personae: []Persona{
		{Character: "Char_1", Role: RoleHead},
		{Character: "Char_2", Role: RoleRecipient},
	}})
	_ = j.Append(Entry{ID: 3, Type: TypeGeneral, Personae: []Persona{{Character: "Char_3", Role: RoleSubject}}})
	j.MarkViewed(1)

	tests := []struct {
		name string
		f    Filter
		want []ids.EntryID
	}{
		{"all", Filter{}, []ids.EntryID{1, 2, 3}},
		{"involving", Filter{Involving: []ids.CharID{"Char_1"}}, []ids.EntryID{1, 2}},
		{"unviewed", Filter{Involving: []ids.CharID{"Char_1"}, UnviewedOnly: true}, []ids.EntryID{2}},
		{"awaiting proposer", Filter{Involving: []ids.CharID{"Char_1"}, AwaitingOnly: true}, nil},
		{"awaiting recipient", Filter{Involving: []ids.CharID{"Char_2"}, AwaitingOnly: true}, []ids.EntryID{2}},
		{"by type", Filter{Type: TypeGeneral}, []ids.EntryID{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := j.Find(tt.f)
			if len(got) != len(tt.want) {
				t.Fatalf("Find = %d entries, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Fatalf("entry %d = %d, want %d", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestScheduledDue(t *testing.T) {
	j := New()
	j.Schedule(Entry{ID: 5, Date: spring1200.Add(2), Type: TypeBirth, Personae: []Persona{{Character: "Char_1", Role: RoleMother}}})
	j.Schedule(Entry{ID: 4, Date: spring1200.Add(1), Type: TypeMarriage, Personae: []Persona{{Character: "Char_2", Role: RoleBride}}})
	j.Schedule(Entry{ID: 6, Date: spring1200.Add(1), Type: TypeBirth, Personae: []Persona{{Character: "Char_3", Role: RoleMother}}})

	if due := j.Due(spring1200); len(due) != 0 {
		t.Fatalf("nothing should be due yet, got %d", len(due))
	}
	due := j.Due(spring1200.Add(1))
	if len(due) != 2 || due[0].ID != 4 || due[1].ID != 6 {
		t.Fatalf("due = %+v", due)
	}
	if n := j.CancelScheduled("Char_1", TypeBirth); n != 1 {
		t.Fatalf("CancelScheduled = %d, want 1", n)
	}
	if len(j.Scheduled()) != 0 {
		t.Fatalf("queue should be empty")
	}
}

func TestRestoreSortsEntries(t *testing.T) {
	j := New()
	err := j.Restore([]Entry{{ID: 3}, {ID: 1}, {ID: 2}}, []Entry{{ID: 9, Date: spring1200}})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got := j.Entries()
	for i, e := range got {
		if e.ID != ids.EntryID(i+1) {
			t.Fatalf("entry %d has id %d", i, e.ID)
		}
	}
	if len(j.Scheduled()) != 1 {
		t.Fatalf("scheduled not restored")
	}
	if err := j.Restore([]Entry{{ID: 1}, {ID: 1}}, nil); err == nil {
		t.Fatalf("duplicate ids should fail restore")
	}
}
