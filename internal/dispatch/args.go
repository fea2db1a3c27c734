package dispatch

import (
	"math"
	"strconv"
	"strings"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

// ── Argument parsing ───────────────────────────────────────────────────

func (c *call) target() (string, error) {
	s := strings.TrimSpace(c.req.Message)
	if s == "" {
		return "", gameerr.Invalid("%s needs a target in message", c.req.Action)
	}
	return s, nil
}

func (c *call) field(i int) (string, error) {
	if i >= len(c.req.Fields) || strings.TrimSpace(c.req.Fields[i]) == "" {
		return "", gameerr.Invalid("%s needs field %d", c.req.Action, i+1)
	}
	return strings.TrimSpace(c.req.Fields[i]), nil
}

// optField returns field i, or "" when absent.
func (c *call) optField(i int) string {
	if i >= len(c.req.Fields) {
		return ""
	}
	return strings.TrimSpace(c.req.Fields[i])
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, gameerr.New(gameerr.CodeInvalidAmount, "%q is not a number", s)
	}
	return v, nil
}

func (c *call) amountField(i int) (float64, error) {
	s, err := c.field(i)
	if err != nil {
		return 0, err
	}
	return parseAmount(s)
}

func (c *call) uintField(i int, bits int) (uint64, error) {
	s, err := c.field(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, gameerr.New(gameerr.CodeInvalidAmount, "%q is not a whole number", s)
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1", "accept", "add", "enter":
		return true, nil
	case "false", "no", "n", "0", "reject", "remove", "exit":
		return false, nil
	}
	return false, gameerr.Invalid("%q is not a yes or no", s)
}

// optBool parses field i, returning def when the field is absent.
func (c *call) optBool(i int, def bool) (bool, error) {
	s := c.optField(i)
	if s == "" {
		return def, nil
	}
	return parseBool(s)
}

// ── Entity resolution ──────────────────────────────────────────────────

func (c *call) character(id string) (*character.Character, error) {
	return c.g.Character(ids.CharID(id))
}

func (c *call) targetChar() (*character.Character, error) {
	id, err := c.target()
	if err != nil {
		return nil, err
	}
	return c.character(id)
}

func (c *call) fieldChar(i int) (*character.Character, error) {
	id, err := c.field(i)
	if err != nil {
		return nil, err
	}
	return c.character(id)
}

func (c *call) targetFief() (*realm.Fief, error) {
	id, err := c.target()
	if err != nil {
		return nil, err
	}
	return c.g.Fief(ids.FiefID(id))
}

func (c *call) targetArmy() (*realm.Army, error) {
	id, err := c.target()
	if err != nil {
		return nil, err
	}
	return c.g.Army(ids.ArmyID(id))
}

func (c *call) targetSiege() (*realm.Siege, error) {
	id, err := c.target()
	if err != nil {
		return nil, err
	}
	return c.g.Siege(ids.SiegeID(id))
}

func (c *call) targetEntry() (journal.Entry, error) {
	s, err := c.target()
	if err != nil {
		return journal.Entry{}, err
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(s, string(ids.KindEntry)+"_"), 10, 64)
	if err != nil {
		return journal.Entry{}, gameerr.Invalid("%q is not a journal entry id", s)
	}
	e, ok := c.g.Journal().Get(ids.EntryID(n))
	if !ok {
		return journal.Entry{}, gameerr.NotFound(gameerr.CodeEntryNotFound, s)
	}
	return e, nil
}
