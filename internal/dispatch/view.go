package dispatch

import (
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/authz"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/protocol"
)

func viewChar(c *call) (protocol.Response, error) {
	ch, err := c.targetChar()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.CanSeeCharOrAdmin, ch); err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadCharacter, c.charView(ch), "%s", ch.FullName()), nil
}

func viewFief(c *call) (protocol.Response, error) {
	f, err := c.targetFief()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.CanSeeFiefOrAdmin, f); err != nil {
		return protocol.Response{}, err
	}
	full := c.actor.Admin || (c.actor.Player != nil && f.Owner == c.actor.Player.ID)
	return respond(protocol.PayloadFief, protocol.NewFiefView(f, full), "%s", f.Name), nil
}

func viewArmy(c *call) (protocol.Response, error) {
	a, err := c.targetArmy()
	if err != nil {
		return protocol.Response{}, err
	}
	f, _ := c.g.Fief(a.Location)
	if err := c.check(authz.CanSeeArmyOrAdmin, authz.ArmyInFief{Army: a, Fief: f}); err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadArmy, protocol.NewArmyView(a), "%s at %s", a.ID, a.Location), nil
}

func viewSiege(c *call) (protocol.Response, error) {
	s, err := c.targetSiege()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.PartyToSiegeOrAdmin, s); err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadSiege, protocol.NewSiegeView(s), "siege of %s", s.Fief), nil
}

func viewProvince(c *call) (protocol.Response, error) {
	id, err := c.target()
	if err != nil {
		return protocol.Response{}, err
	}
	p, err := c.g.Province(ids.ProvinceID(id))
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.IsLivingPlayerOrAdmin, p); err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadProvince, protocol.NewProvinceView(c.g, p), "%s", p.Name), nil
}

// listFiefs lists the fiefs a player owns. Message may name another player
// for administrators; it defaults to the requester.
func listFiefs(c *call) (protocol.Response, error) {
	p, err := c.subjectPlayer()
	if err != nil {
		return protocol.Response{}, err
	}
	var views []protocol.FiefView
	for _, id := range p.Player.Fiefs {
		if f, err := c.g.Fief(id); err == nil {
			views = append(views, protocol.NewFiefView(f, true))
		}
	}
	return respond(protocol.PayloadFiefs, views, "%d fiefs held by %s", len(views), p.FullName()), nil
}

func listCharsInFief(c *call) (protocol.Response, error) {
	f, err := c.targetFief()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.CanSeeFiefOrAdmin, f); err != nil {
		return protocol.Response{}, err
	}
	var views []protocol.CharacterView
	for _, id := range f.Characters {
		if ch, err := c.g.Character(id); err == nil {
			views = append(views, c.charView(ch))
		}
	}
	return respond(protocol.PayloadCharacters, views, "%d people in %s", len(views), f.Name), nil
}

func listEmployees(c *call) (protocol.Response, error) {
	p, err := c.subjectPlayer()
	if err != nil {
		return protocol.Response{}, err
	}
	var views []protocol.CharacterView
	for _, id := range p.Player.Dependents {
		if ch, err := c.g.Character(id); err == nil {
			views = append(views, protocol.NewCharacterView(c.g, ch, true))
		}
	}
	return respond(protocol.PayloadCharacters, views, "%d in the household of %s", len(views), p.FullName()), nil
}

// subjectPlayer returns the player named in Message, or the requester when
// Message is empty. Only administrators may name someone else.
func (c *call) subjectPlayer() (*character.Character, error) {
	if c.req.Message == "" {
		return c.self()
	}
	p, err := c.g.Player(ids.CharID(c.req.Message))
	if err != nil {
		return nil, err
	}
	if err := c.check(authz.OwnsCharOrAdmin, p); err != nil {
		return nil, err
	}
	return p, nil
}

// viewJournalEntries lists the household's entries, newest last. Fields
// may carry the filters "unviewed" and "awaiting".
func viewJournalEntries(c *call) (protocol.Response, error) {
	p, err := c.subjectPlayer()
	if err != nil {
		return protocol.Response{}, err
	}
	f := journal.Filter{Involving: append([]ids.CharID{p.ID}, p.Player.Dependents...)}
	for _, flag := range c.req.Fields {
		switch flag {
		case "unviewed":
			f.UnviewedOnly = true
		case "awaiting":
			f.AwaitingOnly = true
		}
	}
	var views []protocol.JournalEntryView
	for _, e := range c.g.Journal().Find(f) {
		views = append(views, protocol.NewJournalEntryView(e))
	}
	return respond(protocol.PayloadEntries, views, "%d journal entries", len(views)), nil
}

func viewJournalEntry(c *call) (protocol.Response, error) {
	e, err := c.targetEntry()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsJournalEntryOrAdmin, e); err != nil {
		return protocol.Response{}, err
	}
	if !c.actor.Admin {
		c.g.Journal().MarkViewed(e.ID)
		e.Viewed = true
	}
	return respond(protocol.PayloadEntry, protocol.NewJournalEntryView(e), "%s", e.Description), nil
}
