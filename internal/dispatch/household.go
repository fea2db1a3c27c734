package dispatch

import (
	"strconv"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/authz"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/engine"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/protocol"
)

// offerSalary bids for a character. Fields: offer.
func offerSalary(c *call) (protocol.Response, error) {
	d, err := c.targetChar()
	if err != nil {
		return protocol.Response{}, err
	}
	offer, err := c.amountField(0)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.CanSeeCharOrAdmin, d); err != nil {
		return protocol.Response{}, err
	}
	p, err := c.self()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.Hire(p, d, offer); err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadCharacter, c.charView(d), "%s enters the service of %s for %s a year",
		d.FullName(), p.FullName(), engine.Money(offer)), nil
}

func fire(c *call) (protocol.Response, error) {
	d, err := c.targetChar()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsCharOrAdmin, d); err != nil {
		return protocol.Response{}, err
	}
	p, err := c.actingFor(d.Employer())
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.Fire(p, d); err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadCharacter, protocol.NewCharacterView(c.g, d, false), "%s has been dismissed", d.FullName()), nil
}

// addRemoveEntourage toggles a dependent's place in the entourage. An
// optional field forces the direction: "add" or "remove".
func addRemoveEntourage(c *call) (protocol.Response, error) {
	d, err := c.targetChar()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsFreeCharOrAdmin, d); err != nil {
		return protocol.Response{}, err
	}
	p, err := c.actingFor(d.Employer())
	if err != nil {
		return protocol.Response{}, err
	}
	add, err := c.optBool(0, !(d.IsDependent() && d.Dependent.InEntourage))
	if err != nil {
		return protocol.Response{}, err
	}
	if add {
		err = c.g.AddToEntourage(p, d)
	} else {
		err = c.g.RemoveFromEntourage(p, d)
	}
	if err != nil {
		return protocol.Response{}, err
	}
	verb := "leaves"
	if add {
		verb = "joins"
	}
	return respond(protocol.PayloadCharacter, c.charView(p), "%s %s the entourage", d.FullName(), verb), nil
}

// proposeMarriage offers the groom's hand. Fields: bride.
func proposeMarriage(c *call) (protocol.Response, error) {
	groom, err := c.targetChar()
	if err != nil {
		return protocol.Response{}, err
	}
	bride, err := c.fieldChar(0)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsFreeCharOrAdmin, groom); err != nil {
		return protocol.Response{}, err
	}
	id, err := c.g.ProposeMarriage(groom, bride)
	if err != nil {
		return protocol.Response{}, err
	}
	e, _ := c.g.Journal().Get(id)
	resp := respond(protocol.PayloadEntry, protocol.NewJournalEntryView(e), "%s has proposed to %s", groom.FullName(), bride.FullName())
	resp.Fields = []string{strconv.FormatUint(uint64(id), 10)}
	return resp, nil
}

// replyToProposal answers a proposal entry. Fields: accept.
func replyToProposal(c *call) (protocol.Response, error) {
	e, err := c.targetEntry()
	if err != nil {
		return protocol.Response{}, err
	}
	accept, err := c.field(0)
	if err != nil {
		return protocol.Response{}, err
	}
	yes, err := parseBool(accept)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.RecipientOfEntryOrAdmin, e); err != nil {
		return protocol.Response{}, err
	}
	recipient, _ := e.Persona(journal.RoleRecipient)
	replier, err := c.actingFor(recipient)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.ReplyToProposal(replier, e.ID, yes); err != nil {
		return protocol.Response{}, err
	}
	e, _ = c.g.Journal().Get(e.ID)
	answer := "rejected"
	if yes {
		answer = "accepted"
	}
	return respond(protocol.PayloadEntry, protocol.NewJournalEntryView(e), "proposal %s", answer), nil
}

func appointHeir(c *call) (protocol.Response, error) {
	heir, err := c.targetChar()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsCharOrAdmin, heir); err != nil {
		return protocol.Response{}, err
	}
	p, err := c.actingFor(heir.Employer())
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.AppointHeir(p, heir); err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadCharacter, c.charView(heir), "%s is now heir to %s", heir.FullName(), p.FullName()), nil
}

func tryForChild(c *call) (protocol.Response, error) {
	husband, err := c.targetChar()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsFreeCharOrAdmin, husband); err != nil {
		return protocol.Response{}, err
	}
	conceived, err := c.g.TryForChild(husband)
	if err != nil {
		return protocol.Response{}, err
	}
	msg := "no child was conceived"
	if conceived {
		msg = "a child is on the way"
	}
	resp := respond(protocol.PayloadCharacter, c.charView(husband), "%s", msg)
	resp.Fields = []string{strconv.FormatBool(conceived)}
	return resp, nil
}
