// Package dispatch turns client requests into engine operations.
//
// Every action follows the same path: resolve the entities it names,
// authorise the requester against a named predicate, hand the work to the
// engine, and answer with a protocol.Response carrying the affected view.
package dispatch

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/authz"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/engine"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/protocol"
)

// ReplayWindow is how many responses are remembered per user for requestId
// de-duplication.
const ReplayWindow = 64

// Stepper advances the world by one season.
type Stepper interface {
	Step() (engine.SeasonSummary, error)
}

// Dispatcher routes requests to handlers.
type Dispatcher struct {
	Game    *engine.Game
	Authz   *authz.Registry
	Stepper Stepper                // Runs SeasonUpdate; nil refuses it
	IsAdmin func(user string) bool // nil means nobody is an administrator

	mu    sync.Mutex
	users map[string]*session
}

// New creates a dispatcher with the default predicates.
func New(g *engine.Game, stepper Stepper, isAdmin func(string) bool) *Dispatcher {
	return &Dispatcher{Game: g, Authz: authz.NewRegistry(), Stepper: stepper, IsAdmin: isAdmin}
}

// session serialises one user's requests and remembers their recent
// responses by request ID.
type session struct {
	mu      sync.Mutex
	order   []string
	replies map[string]protocol.Response
}

func (d *Dispatcher) session(user string) *session {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.users == nil {
		d.users = make(map[string]*session)
	}
	s, ok := d.users[user]
	if !ok {
		s = &session{replies: make(map[string]protocol.Response)}
		d.users[user] = s
	}
	return s
}

func (s *session) remember(id string, resp protocol.Response) {
	if _, ok := s.replies[id]; ok {
		return
	}
	if len(s.order) >= ReplayWindow {
		delete(s.replies, s.order[0])
		s.order = s.order[1:]
	}
	s.order = append(s.order, id)
	s.replies[id] = resp
}

// Handle executes one request for user. A request repeating a recent
// requestId gets the earlier response back without running again.
func (d *Dispatcher) Handle(user string, req protocol.Request) protocol.Response {
	s := d.session(user)
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.RequestID != "" {
		if resp, ok := s.replies[req.RequestID]; ok {
			slog.Debug("replaying response", "user", user, "request", req.RequestID, "action", req.Action)
			return resp
		}
	}
	resp := d.run(user, req)
	resp.RequestID, resp.Action = req.RequestID, req.Action
	if req.RequestID != "" {
		s.remember(req.RequestID, resp)
	}
	return resp
}

func (d *Dispatcher) run(user string, req protocol.Request) (resp protocol.Response) {
	h, ok := handlers[req.Action]
	if !ok {
		return protocol.Fail(req, gameerr.New(gameerr.CodeUnknownAction, "unknown action %q", req.Action))
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("action panicked", "user", user, "action", req.Action, "panic", r)
			resp = protocol.Fail(req, gameerr.New(gameerr.CodeInternal, "internal error handling %s", req.Action))
		}
	}()

	var err error
	c := &call{g: d.Game, d: d, req: req}
	if h.unlocked {
		d.Game.Exclusive(func() { c.actor = d.actor(user) })
		resp, err = h.fn(c)
	} else {
		d.Game.Exclusive(func() {
			c.actor = d.actor(user)
			resp, err = h.fn(c)
		})
	}
	if err != nil {
		slog.Debug("action rejected", "user", user, "action", req.Action, "err", err)
		return protocol.Fail(req, err)
	}
	if resp.Result == "" {
		resp.Result = protocol.ResultSuccess
	}
	return resp
}

func (d *Dispatcher) actor(user string) authz.Actor {
	a := authz.Actor{User: user, Admin: d.IsAdmin != nil && d.IsAdmin(user)}
	if p, err := d.Game.PlayerByUser(user); err == nil {
		a.Player = p
	}
	return a
}

type handlerFunc func(c *call) (protocol.Response, error)

type handler struct {
	fn       handlerFunc
	unlocked bool // Runs without the world lock; the handler locks for itself
}

var handlers map[protocol.Action]handler

func init() {
	handlers = map[protocol.Action]handler{
		protocol.ActionViewChar:           {fn: viewChar},
		protocol.ActionViewFief:           {fn: viewFief},
		protocol.ActionViewArmy:           {fn: viewArmy},
		protocol.ActionViewSiege:          {fn: viewSiege},
		protocol.ActionViewProvince:       {fn: viewProvince},
		protocol.ActionListFiefs:          {fn: listFiefs},
		protocol.ActionListCharsInFief:    {fn: listCharsInFief},
		protocol.ActionListEmployees:      {fn: listEmployees},
		protocol.ActionViewJournalEntries: {fn: viewJournalEntries},
		protocol.ActionViewJournalEntry:   {fn: viewJournalEntry},

		protocol.ActionOfferSalary:        {fn: offerSalary},
		protocol.ActionFire:               {fn: fire},
		protocol.ActionAddRemoveEntourage: {fn: addRemoveEntourage},
		protocol.ActionProposeMarriage:    {fn: proposeMarriage},
		protocol.ActionReplyToProposal:    {fn: replyToProposal},
		protocol.ActionAppointHeir:        {fn: appointHeir},
		protocol.ActionTryForChild:        {fn: tryForChild},

		protocol.ActionTravelTo:      {fn: travelTo},
		protocol.ActionTakeThisRoute: {fn: takeThisRoute},
		protocol.ActionCamp:          {fn: camp},
		protocol.ActionEnterExitKeep: {fn: enterExitKeep},

		protocol.ActionAppointBailiff:          {fn: appointBailiff},
		protocol.ActionRemoveBailiff:           {fn: removeBailiff},
		protocol.ActionGrantFiefTitle:          {fn: grantFiefTitle},
		protocol.ActionAdjustExpenditure:       {fn: adjustExpenditure},
		protocol.ActionTransferFunds:           {fn: transferFunds},
		protocol.ActionTransferFundsToPlayer:   {fn: transferFundsToPlayer},
		protocol.ActionBarCharacter:            {fn: barCharacter},
		protocol.ActionUnbarCharacter:          {fn: unbarCharacter},
		protocol.ActionLodgeOwnershipChallenge: {fn: lodgeOwnershipChallenge},

		protocol.ActionRecruitTroops:       {fn: recruitTroops},
		protocol.ActionMaintainArmy:        {fn: maintainArmy},
		protocol.ActionAppointLeader:       {fn: appointLeader},
		protocol.ActionDropOffTroops:       {fn: dropOffTroops},
		protocol.ActionListDetachments:     {fn: listDetachments},
		protocol.ActionPickUpTroops:        {fn: pickUpTroops},
		protocol.ActionDisbandArmy:         {fn: disbandArmy},
		protocol.ActionAdjustCombatValues:  {fn: adjustCombatValues},
		protocol.ActionBesiegeFief:         {fn: besiegeFief},
		protocol.ActionSiegeRoundReduction: {fn: siegeRound},
		protocol.ActionSiegeRoundStorm:     {fn: siegeRound},
		protocol.ActionSiegeRoundNegotiate: {fn: siegeRound},
		protocol.ActionEndSiege:            {fn: endSiege},

		protocol.ActionKidnap:         {fn: kidnap},
		protocol.ActionViewCaptives:   {fn: viewCaptives},
		protocol.ActionRansomCaptive:  {fn: ransomCaptive},
		protocol.ActionPayRansom:      {fn: payRansom},
		protocol.ActionReleaseCaptive: {fn: releaseCaptive},
		protocol.ActionExecuteCaptive: {fn: executeCaptive},

		protocol.ActionAttack:       {fn: unimplemented("field battles")},
		protocol.ActionSpyFief:      {fn: unimplemented("spying on fiefs")},
		protocol.ActionSpyCharacter: {fn: unimplemented("spying on characters")},
		protocol.ActionSpyArmy:      {fn: unimplemented("spying on armies")},

		protocol.ActionSeasonUpdate: {fn: seasonUpdate, unlocked: true},
	}
}

func unimplemented(what string) handlerFunc {
	return func(*call) (protocol.Response, error) {
		return protocol.Response{}, gameerr.Unimplemented(what)
	}
}

// call is one request in flight.
type call struct {
	g     *engine.Game
	d     *Dispatcher
	req   protocol.Request
	actor authz.Actor
}

func (c *call) check(name authz.Name, target any) error {
	return c.d.Authz.Check(c.g, name, c.actor, target)
}

// self returns the requester's own player character.
func (c *call) self() (*character.Character, error) {
	if c.actor.Player == nil {
		return nil, gameerr.NotFound(gameerr.CodePlayerNotFound, c.actor.User)
	}
	return c.actor.Player, nil
}

// actingFor returns the player an operation on owner's property runs as.
// Administrators act as the owner; everyone else acts as themselves.
func (c *call) actingFor(owner ids.CharID) (*character.Character, error) {
	if c.actor.Admin && owner != "" && (c.actor.Player == nil || c.actor.Player.ID != owner) {
		return c.g.Player(owner)
	}
	return c.self()
}

// fullView reports whether the requester sees ch's private details.
func (c *call) fullView(ch *character.Character) bool {
	if c.actor.Admin {
		return true
	}
	return c.actor.Player != nil && engine.Serves(ch, c.actor.Player)
}

func (c *call) charView(ch *character.Character) protocol.CharacterView {
	return protocol.NewCharacterView(c.g, ch, c.fullView(ch))
}

func respond(kind protocol.PayloadKind, payload any, format string, args ...any) protocol.Response {
	return protocol.Response{Message: fmt.Sprintf(format, args...), PayloadKind: kind, Payload: payload}
}
