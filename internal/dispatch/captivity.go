package dispatch

import (
	"strconv"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/authz"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/engine"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/protocol"
)

// heldCaptive resolves the target captive and returns the captor the
// operation runs as.
func (c *call) heldCaptive() (*character.Character, *character.Character, error) {
	captive, err := c.targetChar()
	if err != nil {
		return nil, nil, err
	}
	if err := c.check(authz.HoldsCaptiveOrAdmin, captive); err != nil {
		return nil, nil, err
	}
	captor, err := c.actingFor(captive.Captor)
	if err != nil {
		return nil, nil, err
	}
	return captive, captor, nil
}

// kidnap tries to seize the target. Response fields: whether it worked.
func kidnap(c *call) (protocol.Response, error) {
	target, err := c.targetChar()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.CanSeeCharOrAdmin, target); err != nil {
		return protocol.Response{}, err
	}
	p, err := c.self()
	if err != nil {
		return protocol.Response{}, err
	}
	ok, err := c.g.Kidnap(p, target)
	if err != nil {
		return protocol.Response{}, err
	}
	msg := "%s slipped away"
	if ok {
		msg = "%s has been seized"
	}
	resp := respond(protocol.PayloadCharacter, protocol.NewCharacterView(c.g, target, false), msg, target.FullName())
	resp.Fields = []string{strconv.FormatBool(ok)}
	return resp, nil
}

func viewCaptives(c *call) (protocol.Response, error) {
	p, err := c.subjectPlayer()
	if err != nil {
		return protocol.Response{}, err
	}
	var views []protocol.CharacterView
	for _, ch := range c.g.Captives(p) {
		views = append(views, protocol.NewCharacterView(c.g, ch, false))
	}
	return respond(protocol.PayloadCharacters, views, "%d captives held by %s", len(views), p.FullName()), nil
}

// ransomCaptive demands payment. Fields: amount. Response fields: the
// demand's journal entry.
func ransomCaptive(c *call) (protocol.Response, error) {
	captive, captor, err := c.heldCaptive()
	if err != nil {
		return protocol.Response{}, err
	}
	amount, err := c.amountField(0)
	if err != nil {
		return protocol.Response{}, err
	}
	id, err := c.g.RansomCaptive(captor, captive, amount)
	if err != nil {
		return protocol.Response{}, err
	}
	e, _ := c.g.Journal().Get(id)
	resp := respond(protocol.PayloadEntry, protocol.NewJournalEntryView(e), "%s demanded for %s", engine.Money(amount), captive.FullName())
	resp.Fields = []string{strconv.FormatUint(uint64(id), 10)}
	return resp, nil
}

// payRansom settles the demand entry named in Message.
func payRansom(c *call) (protocol.Response, error) {
	e, err := c.targetEntry()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.RecipientOfEntryOrAdmin, e); err != nil {
		return protocol.Response{}, err
	}
	recipient, _ := e.Persona(journal.RoleRecipient)
	payer, err := c.actingFor(recipient)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.PayRansom(payer, e.ID); err != nil {
		return protocol.Response{}, err
	}
	e, _ = c.g.Journal().Get(e.ID)
	return respond(protocol.PayloadEntry, protocol.NewJournalEntryView(e), "ransom paid"), nil
}

func releaseCaptive(c *call) (protocol.Response, error) {
	captive, captor, err := c.heldCaptive()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.ReleaseCaptive(captor, captive); err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadCharacter, protocol.NewCharacterView(c.g, captive, false), "%s is free", captive.FullName()), nil
}

func executeCaptive(c *call) (protocol.Response, error) {
	captive, captor, err := c.heldCaptive()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.ExecuteCaptive(captor, captive); err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadCharacter, protocol.NewCharacterView(c.g, captive, false), "%s has been executed", captive.FullName()), nil
}
