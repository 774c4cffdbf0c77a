package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illegalcall/fitplan/internal/models"
	"github.com/illegalcall/fitplan/internal/session"
)

func TestResolve(t *testing.T) {
	anonymous := session.Snapshot{}
	noProfile := session.Snapshot{Token: "tok", UserID: "u1"}
	onboarding := session.Snapshot{Token: "tok", UserID: "u1", Profile: &models.Profile{Name: "Ana"}}
	complete := session.Snapshot{Token: "tok", UserID: "u1", Profile: &models.Profile{Name: "Ana", IsOnboardingComplete: true}}

	tests := []struct {
		name    string
		route   Route
		snap    session.Snapshot
		loading bool
		want    Decision
	}{
		{"login anonymous", RouteLogin, anonymous, false, show(ViewLogin)},
		{"login with token", RouteLogin, noProfile, false, redirect(RouteRoot)},
		{"root anonymous", RouteRoot, anonymous, false, redirect(RouteLogin)},
		{"root while profile loads", RouteRoot, noProfile, true, show(ViewLoading)},
		{"root without profile", RouteRoot, noProfile, false, show(ViewOnboarding)},
		{"root onboarding", RouteRoot, onboarding, false, show(ViewOnboarding)},
		{"root complete", RouteRoot, complete, false, redirect(RouteDashboard)},
		{"root complete while refetching", RouteRoot, complete, true, redirect(RouteDashboard)},
		{"dashboard complete", RouteDashboard, complete, false, show(ViewDashboard)},
		{"dashboard without profile", RouteDashboard, noProfile, false, redirect(RouteRoot)},
		{"dashboard onboarding", RouteDashboard, onboarding, false, redirect(RouteRoot)},
		{"dashboard anonymous", RouteDashboard, anonymous, false, redirect(RouteRoot)},
		{"unknown route", Route("/settings"), complete, false, redirect(RouteRoot)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.route, tt.snap, tt.loading))
		})
	}
}

func TestResolveFinal(t *testing.T) {
	route, view := ResolveFinal(RouteDashboard, session.Snapshot{}, false)
	assert.Equal(t, RouteLogin, route)
	assert.Equal(t, ViewLogin, view)

	complete := session.Snapshot{Token: "tok", UserID: "u1", Profile: &models.Profile{IsOnboardingComplete: true}}
	route, view = ResolveFinal(RouteLogin, complete, false)
	assert.Equal(t, RouteDashboard, route)
	assert.Equal(t, ViewDashboard, view)
}

func TestHistory(t *testing.T) {
	h := NewHistory(RouteRoot)
	h.Navigate(RouteDashboard)
	h.Navigate(RouteLogin)

	assert.Equal(t, RouteLogin, h.Current())
	assert.Equal(t, []Route{RouteRoot, RouteDashboard, RouteLogin}, h.Entries())

	var empty History
	assert.Equal(t, RouteRoot, empty.Current())
}
