// Package actions implements the POST action registry and dispatcher for the
// Calchart page.
//
// The client sends actions as form posts carrying an action name and a JSON
// payload. Each action is a named server-side operation registered in a
// [Registry] built once at startup; dispatch is an exact string match into
// that mapping, with no reflection and no request-time registration.
//
// Failure classification mirrors the page contract: an unknown action name
// and a handler failure both surface as internal errors, while a handler
// signalling a missing resource maps to a not-found status. [StatusFor]
// performs that mapping for the HTTP boundary.
package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/calband/calchart/internal/membersonly"
	"github.com/calband/calchart/internal/models"
	"github.com/calband/calchart/internal/shared"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	User       *models.User
	Committees membersonly.CommitteeChecker
}

// HasCommittee reports whether the caller is part of the given committee.
func (i Identity) HasCommittee(ctx context.Context, committee string) (bool, error) {
	if i.User == nil {
		return false, nil
	}
	if i.Committees == nil {
		return i.User.IsSuperuser(), nil
	}
	return i.Committees.CheckCommittee(ctx, i.User, committee)
}

// HandlerFunc performs one action. The payload is the decoded JSON sent in
// the request's data field; the result must be JSON-serializable. A nil
// result is rendered as an empty JSON object by the page controller.
type HandlerFunc func(ctx context.Context, payload json.RawMessage, ident Identity) (any, error)

// registration binds a handler to its declared required committee.
type registration struct {
	handler   HandlerFunc
	committee string
}

// Registry maps action names to handlers. It is populated at startup and
// read-only afterwards; dispatch performs no locking.
type Registry struct {
	entries map[string]registration
}

// NewRegistry creates an empty action registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Register adds an action available to any authenticated caller.
func (r *Registry) Register(name string, handler HandlerFunc) {
	r.entries[name] = registration{handler: handler}
}

// RegisterGuarded adds an action that requires membership in the given
// committee. The dispatcher checks the requirement before invoking the
// handler.
func (r *Registry) RegisterGuarded(name, committee string, handler HandlerFunc) {
	r.entries[name] = registration{handler: handler, committee: committee}
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownActionError reports an action name absent from the registry.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("Action does not exist: %s", e.Name)
}

// Dispatch resolves the action name and invokes its handler exactly once.
//
// An unregistered name returns an [UnknownActionError] without invoking any
// handler. When the action declares a required committee, the caller's
// membership is checked first.
func (r *Registry) Dispatch(ctx context.Context, name string, payload json.RawMessage, ident Identity) (any, error) {
	reg, ok := r.entries[name]
	if !ok {
		return nil, &UnknownActionError{Name: name}
	}

	if reg.committee != "" {
		has, err := ident.HasCommittee(ctx, reg.committee)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, fmt.Errorf("%w: requires %s committee", shared.ErrPermissionDenied, reg.committee)
		}
	}

	return reg.handler(ctx, payload, ident)
}

// StatusFor maps a dispatch failure to an HTTP status code.
//
// Handler-signalled missing resources map to 404. Unknown action names map
// to 500, same as handler failures; the page contract has always conflated
// the two and clients depend on it.
func StatusFor(err error) int {
	var unknown *UnknownActionError
	if errors.As(err, &unknown) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, shared.ErrNotFound) ||
		errors.Is(err, shared.ErrShowNotFound) ||
		errors.Is(err, shared.ErrUserNotFound) {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}
