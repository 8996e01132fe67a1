// Package gate decides whether a resolved session may see a protected route.
//
// A gate starts in Loading and settles exactly once into Allowed, Denied or
// Redirected.
package gate

import (
	"errors"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/role"
)

type State string

const (
	Loading    State = "loading"
	Allowed    State = "allowed"
	Denied     State = "denied"
	Redirected State = "redirected"
)

func (s State) Terminal() bool {
	return s == Allowed || s == Denied || s == Redirected
}

var ErrTerminal = errors.New("gate already settled")

// Requirement is what a route declares. An empty RedirectTo means render the
// fallback in place.
type Requirement struct {
	Capability role.Capability
	RedirectTo string
}

type Reason string

const (
	ReasonNone         Reason = ""
	ReasonUnauthorized Reason = "unauthorized"
	ReasonForbidden    Reason = "forbidden"
	ReasonBlocked      Reason = "account_blocked"
	ReasonDeactivated  Reason = "account_deactivated"
)

type Gate struct {
	req    Requirement
	state  State
	reason Reason
}

func New(req Requirement) *Gate {
	return &Gate{req: req, state: Loading}
}

func (g *Gate) State() State { return g.state }
func (g *Gate) Reason() Reason { return g.reason }

func (g *Gate) Requirement() Requirement {
	return g.req
}

// Settle moves the gate out of Loading once the session is known. A nil
// session leaves it Loading.
func (g *Gate) Settle(s *auth.Session) (State, error) {
	if g.state.Terminal() {
		return g.state, ErrTerminal
	}

	next, reason := Evaluate(g.req, s)
	g.state = next
	g.reason = reason
	return next, nil
}

// Evaluate is the pure transition function.
func Evaluate(req Requirement, s *auth.Session) (State, Reason) {
	if s == nil {
		return Loading, ReasonNone
	}

	if s.Can(req.Capability) {
		return Allowed, ReasonNone
	}

	reason := denyReason(s)

	if req.RedirectTo != "" {
		return Redirected, reason
	}
	return Denied, reason
}

func denyReason(s *auth.Session) Reason {
	switch {
	case s.IsAnonymous():
		return ReasonUnauthorized
	case s.User.Role.IsBlocked():
		return ReasonBlocked
	case !s.User.Active:
		return ReasonDeactivated
	default:
		return ReasonForbidden
	}
}

// Message is the user-facing explanation for a denial.
func (r Reason) Message() string {
	switch r {
	case ReasonUnauthorized:
		return "Please sign in to continue."
	case ReasonBlocked:
		return "Your account has been blocked. Contact support if you think this is a mistake."
	case ReasonDeactivated:
		return "Your account has been deactivated."
	case ReasonForbidden:
		return "Your account does not have access to this page."
	default:
		return ""
	}
}
