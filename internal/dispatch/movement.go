package dispatch

import (
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/authz"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/engine"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/protocol"
)

func travelResponse(res engine.TravelResult, name string, at ids.FiefID) protocol.Response {
	resp := protocol.Response{PayloadKind: protocol.PayloadCharacter}
	for _, id := range res.Remaining {
		resp.Fields = append(resp.Fields, string(id))
	}
	if res.Arrived() {
		resp.Message = name + " arrived at " + string(at)
	} else {
		resp.Message = name + " halted at " + string(at) + " for want of days"
	}
	return resp
}

// travelTo walks the cheapest route. Fields: destination fief. Fields of
// the response list the fiefs still to go.
func travelTo(c *call) (protocol.Response, error) {
	ch, err := c.targetChar()
	if err != nil {
		return protocol.Response{}, err
	}
	dest, err := c.field(0)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsFreeCharOrAdmin, ch); err != nil {
		return protocol.Response{}, err
	}
	res, err := c.g.TravelTo(ch, ids.FiefID(dest))
	if err != nil {
		return protocol.Response{}, err
	}
	resp := travelResponse(res, ch.FullName(), ch.Location)
	resp.Payload = c.charView(ch)
	return resp, nil
}

// takeThisRoute follows the fiefs listed in Fields.
func takeThisRoute(c *call) (protocol.Response, error) {
	ch, err := c.targetChar()
	if err != nil {
		return protocol.Response{}, err
	}
	if len(c.req.Fields) == 0 {
		return protocol.Response{}, gameerr.New(gameerr.CodeInvalidRoute, "route is empty")
	}
	if err := c.check(authz.OwnsFreeCharOrAdmin, ch); err != nil {
		return protocol.Response{}, err
	}
	route := make([]ids.FiefID, len(c.req.Fields))
	for i, f := range c.req.Fields {
		route[i] = ids.FiefID(f)
	}
	res, err := c.g.TakeThisRoute(ch, route)
	if err != nil {
		return protocol.Response{}, err
	}
	resp := travelResponse(res, ch.FullName(), ch.Location)
	resp.Payload = c.charView(ch)
	return resp, nil
}

// camp spends days in place. Fields: days.
func camp(c *call) (protocol.Response, error) {
	ch, err := c.targetChar()
	if err != nil {
		return protocol.Response{}, err
	}
	days, err := c.amountField(0)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsFreeCharOrAdmin, ch); err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.Camp(ch, days); err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadCharacter, c.charView(ch), "%s camps for %.0f days", ch.FullName(), days), nil
}

// enterExitKeep toggles whether the character is inside the keep. An
// optional field forces the direction: "enter" or "exit".
func enterExitKeep(c *call) (protocol.Response, error) {
	ch, err := c.targetChar()
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.check(authz.OwnsFreeCharOrAdmin, ch); err != nil {
		return protocol.Response{}, err
	}
	enter, err := c.optBool(0, !ch.InKeep)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.g.EnterExitKeep(ch, enter); err != nil {
		return protocol.Response{}, err
	}
	verb := "leaves"
	if enter {
		verb = "enters"
	}
	return respond(protocol.PayloadCharacter, c.charView(ch), "%s %s the keep", ch.FullName(), verb), nil
}
