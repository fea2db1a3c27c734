package dispatch

import (
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/authz"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/protocol"
)

// seasonUpdate advances the world one season. It runs outside the world
// lock because the stepper takes it.
func seasonUpdate(c *call) (protocol.Response, error) {
	if err := c.check(authz.IsAdmin, nil); err != nil {
		return protocol.Response{}, err
	}
	if c.d.Stepper == nil {
		return protocol.Response{}, gameerr.Unimplemented("manual season ticks")
	}
	sum, err := c.d.Stepper.Step()
	if err != nil {
		return protocol.Response{}, err
	}
	return respond(protocol.PayloadSummary, protocol.NewSeasonView(sum), "the season turns: %s", sum.Date), nil
}
