// Package journal records what happens in the realm. The main log is
// append-only and ordered by entry ID; only the viewed and replied flags of
// an existing entry ever change. A second queue holds events scheduled for a
// future season (births, weddings, ransom deadlines).
package journal

import (
	"fmt"
	"slices"
	"sync"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/clock"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
)

// EntryType categorises an entry.
type EntryType string

const (
	TypeGeneral       EntryType = "general"
	TypeDeath         EntryType = "death"
	TypeSuccession    EntryType = "succession"
	TypeEscheat       EntryType = "escheat"
	TypeBirth         EntryType = "birth"
	TypePregnancy     EntryType = "pregnancy"
	TypeProposal      EntryType = "proposal"
	TypeProposalReply EntryType = "proposalReply"
	TypeMarriage      EntryType = "marriage"
	TypeHire          EntryType = "hire"
	TypeFire          EntryType = "fire"
	TypeCapture       EntryType = "capture"
	TypeRansom        EntryType = "ransom"
	TypeRelease       EntryType = "release"
	TypeExecution     EntryType = "execution"
	TypeSiege         EntryType = "siege"
	TypeOwnership     EntryType = "ownership"
	TypeVictory       EntryType = "victory"
)

// Persona roles used across entry types.
const (
	RoleSubject   = "subject"
	RoleRecipient = "recipient" // Must reply to the entry
	RoleHead      = "head"
	RoleBride     = "bride"
	RoleGroom     = "groom"
	RoleMother    = "mother"
	RoleFather    = "father"
	RoleCaptor    = "captor"
	RoleCaptive   = "captive"
	RoleHeir      = "heir"
	RoleAttacker  = "attacker"
	RoleDefender  = "defender"
)

// Persona links a character to an entry in a named role.
type Persona struct {
	Character ids.CharID `json:"character"`
	Role      string     `json:"role"`
}

// Entry is one record in the journal.
type Entry struct {
	ID          ids.EntryID       `json:"id"`
	Date        clock.Date        `json:"date"`
	Type        EntryType         `json:"type"`
	Personae    []Persona         `json:"personae"`
	Description string            `json:"description"`
	Location    ids.FiefID        `json:"location,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
	Viewed      bool              `json:"viewed"`
	Replied     bool              `json:"replied"`
}

// Involves reports whether the character appears in the entry.
func (e *Entry) Involves(id ids.CharID) bool {
	for _, p := range e.Personae {
		if p.Character == id {
			return true
		}
	}
	return false
}

// Persona returns the first character with the given role.
func (e *Entry) Persona(role string) (ids.CharID, bool) {
	for _, p := range e.Personae {
		if p.Role == role {
			return p.Character, true
		}
	}
	return "", false
}

// AwaitsReply reports whether the entry is an open question for someone.
func (e *Entry) AwaitsReply() bool {
	if e.Replied {
		return false
	}
	_, ok := e.Persona(RoleRecipient)
	return ok
}

func (e *Entry) clone() Entry {
	c := *e
	c.Personae = slices.Clone(e.Personae)
	if e.Data != nil {
		c.Data = make(map[string]string, len(e.Data))
		for k, v := range e.Data {
			c.Data[k] = v
		}
	}
	return c
}

// Journal holds the entry log and the scheduled-event queue.
type Journal struct {
	mu        sync.RWMutex
	entries   []*Entry
	index     map[ids.EntryID]*Entry
	scheduled []*Entry
}

// New creates an empty journal.
func New() *Journal {
	return &Journal{index: make(map[ids.EntryID]*Entry)}
}

// Append adds an entry. IDs must be strictly increasing.
func (j *Journal) Append(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if n := len(j.entries); n > 0 && e.ID <= j.entries[n-1].ID {
		return fmt.Errorf("journal entry %d out of order (last %d)", e.ID, j.entries[n-1].ID)
	}
	stored := e.clone()
	j.entries = append(j.entries, &stored)
	j.index[e.ID] = &stored
	return nil
}

// Get returns a copy of an entry.
func (j *Journal) Get(id ids.EntryID) (Entry, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	e, ok := j.index[id]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// MarkViewed sets the viewed flag. Returns false if the entry does not exist.
func (j *Journal) MarkViewed(id ids.EntryID) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.index[id]
	if ok {
		e.Viewed = true
	}
	return ok
}

// MarkReplied sets the replied flag. Returns false if the entry does not
// exist or has already been replied to.
func (j *Journal) MarkReplied(id ids.EntryID) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.index[id]
	if !ok || e.Replied {
		return false
	}
	e.Replied = true
	return true
}

// Len returns the number of logged entries.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// Entries returns copies of every entry in ID order.
func (j *Journal) Entries() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Entry, len(j.entries))
	for i, e := range j.entries {
		out[i] = e.clone()
	}
	return out
}

// Recent returns up to n of the latest entries, oldest first.
func (j *Journal) Recent(n int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	start := max(0, len(j.entries)-n)
	out := make([]Entry, 0, len(j.entries)-start)
	for _, e := range j.entries[start:] {
		out = append(out, e.clone())
	}
	return out
}

// Filter selects entries for a mailbox query.
type Filter struct {
	Involving    []ids.CharID // Any of these characters; empty means all
	UnviewedOnly bool
	AwaitingOnly bool // Only entries awaiting a reply from one of Involving
	Type         EntryType
}

// Find returns copies of matching entries in ID order.
func (j *Journal) Find(f Filter) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var out []Entry
	for _, e := range j.entries {
		if f.UnviewedOnly && e.Viewed {
			continue
		}
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if len(f.Involving) > 0 && !involvesAny(e, f.Involving) {
			continue
		}
		if f.AwaitingOnly {
			r, ok := e.Persona(RoleRecipient)
			if !ok || e.Replied || (len(f.Involving) > 0 && !slices.Contains(f.Involving, r)) {
				continue
			}
		}
		out = append(out, e.clone())
	}
	return out
}

func involvesAny(e *Entry, chars []ids.CharID) bool {
	for _, c := range chars {
		if e.Involves(c) {
			return true
		}
	}
	return false
}

// Schedule queues an event for a future season.
func (j *Journal) Schedule(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	stored := e.clone()
	j.scheduled = append(j.scheduled, &stored)
	slices.SortStableFunc(j.scheduled, func(a, b *Entry) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case b.Date.Before(a.Date):
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// Due removes and returns every scheduled event dated on or before now, in order.
func (j *Journal) Due(now clock.Date) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	var due []Entry
	keep := j.scheduled[:0]
	for _, e := range j.scheduled {
		if e.Date.After(now) {
			keep = append(keep, e)
			continue
		}
		due = append(due, e.clone())
	}
	j.scheduled = keep
	return due
}

// Scheduled returns copies of the queued future events.
func (j *Journal) Scheduled() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Entry, len(j.scheduled))
	for i, e := range j.scheduled {
		out[i] = e.clone()
	}
	return out
}

// CancelScheduled drops queued events involving the character with a given type.
// An empty type cancels all of the character's events.
func (j *Journal) CancelScheduled(id ids.CharID, t EntryType) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	keep := j.scheduled[:0]
	for _, e := range j.scheduled {
		if e.Involves(id) && (t == "" || e.Type == t) {
			n++
			continue
		}
		keep = append(keep, e)
	}
	j.scheduled = keep
	return n
}

// Restore replaces the journal contents (used when loading a saved world).
func (j *Journal) Restore(entries, scheduled []Entry) error {
	fresh := New()
	slices.SortFunc(entries, func(a, b Entry) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	for _, e := range entries {
		if err := fresh.Append(e); err != nil {
			return err
		}
	}
	for _, e := range scheduled {
		fresh.Schedule(e)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = fresh.entries
	j.index = fresh.index
	j.scheduled = fresh.scheduled
	return nil
}
