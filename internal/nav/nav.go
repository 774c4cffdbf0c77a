// Package nav decides which view a route shows for a given session.
package nav

import (
	"log/slog"
	"sync"

	"github.com/illegalcall/fitplan/internal/session"
)

type Route string

const (
	RouteRoot      Route = "/"
	RouteLogin     Route = "/login"
	RouteDashboard Route = "/dashboard"
)

type View string

const (
	ViewNone       View = ""
	ViewLogin      View = "login"
	ViewLoading    View = "loading"
	ViewOnboarding View = "onboarding"
	ViewDashboard  View = "dashboard"
)

// Decision is either a view to render or a route to redirect to.
type Decision struct {
	View     View
	Redirect Route
}

func (d Decision) IsRedirect() bool {
	return d.Redirect != ""
}

func show(v View) Decision { return Decision{View: v} }
func redirect(r Route) Decision { return Decision{Redirect: r} }

// Resolve applies the gating rules for route. profileLoading is true while a
// profile fetch for the session is in flight.
func Resolve(route Route, snap session.Snapshot, profileLoading bool) Decision {
	loggedIn := snap.Token != ""
	complete := snap.Profile != nil && snap.Profile.IsOnboardingComplete

	switch route {
	case RouteLogin:
		if loggedIn {
			return redirect(RouteRoot)
		}
		return show(ViewLogin)
	case RouteRoot:
		switch {
		case !loggedIn:
			return redirect(RouteLogin)
		case snap.Profile == nil && profileLoading:
			return show(ViewLoading)
		case complete:
			return redirect(RouteDashboard)
		default:
			return show(ViewOnboarding)
		}
	case RouteDashboard:
		if loggedIn && complete {
			return show(ViewDashboard)
		}
		return redirect(RouteRoot)
	}
	return redirect(RouteRoot)
}

// ResolveFinal follows redirects until a view is reached.
func ResolveFinal(route Route, snap session.Snapshot, profileLoading bool) (Route, View) {
	// Chains settle within three hops.
	for i := 0; i < 8; i++ {
		d := Resolve(route, snap, profileLoading)
		if !d.IsRedirect() {
			return route, d.View
		}
		route = d.Redirect
	}
	slog.Error("Redirect loop while resolving route", "route", route)
	return route, ViewNone
}

// Navigator moves the application to a route.
type Navigator interface {
	Navigate(route Route)
}

// History records navigations in order. It is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []Route
}

// NewHistory starts at start.
func NewHistory(start Route) *History {
	return &History{entries: []Route{start}}
}

func (h *History) Navigate(route Route) {
	h.mu.Lock()
	defer h.mu.Unlock()
	slog.Debug("Navigating", "route", route)
	h.entries = append(h.entries, route)
}

// Current returns the latest route, or RouteRoot when nothing was recorded.
func (h *History) Current() Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return RouteRoot
	}
	return h.entries[len(h.entries)-1]
}

func (h *History) Entries() []Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Route(nil), h.entries...)
}
