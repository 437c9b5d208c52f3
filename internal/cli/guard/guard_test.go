package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldread-dev/coldread/internal/cli/account"
	"github.com/coldread-dev/coldread/internal/cli/session"
)

func TestDecide(t *testing.T) {
	onboarding := session.Authenticated(&account.Profile{ID: "u1", OnboardingCompleted: false})
	onboarded := session.Authenticated(&account.Profile{ID: "u1", OnboardingCompleted: true})

	tests := []struct {
		name   string
		state  session.State
		access Access
		want   Decision
	}{
		{"loading public", session.Loading(), Public, Decision{Outcome: Allow}},
		{"loading session", session.Loading(), RequiresSession, Decision{Outcome: Suspend}},
		{"loading onboarded", session.Loading(), RequiresSessionAndOnboarding, Decision{Outcome: Suspend}},

		{"anonymous public", session.Anonymous(), Public, Decision{Outcome: Allow}},
		{"anonymous session", session.Anonymous(), RequiresSession, Decision{Outcome: Redirect, Path: LoginPath}},
		{"anonymous onboarded", session.Anonymous(), RequiresSessionAndOnboarding, Decision{Outcome: Redirect, Path: LoginPath}},

		{"onboarding public", onboarding, Public, Decision{Outcome: Allow}},
		{"onboarding session", onboarding, RequiresSession, Decision{Outcome: Allow}},
		{"onboarding onboarded", onboarding, RequiresSessionAndOnboarding, Decision{Outcome: Redirect, Path: OnboardingPath}},

		{"onboarded public", onboarded, Public, Decision{Outcome: Allow}},
		{"onboarded session", onboarded, RequiresSession, Decision{Outcome: Allow}},
		{"onboarded onboarded", onboarded, RequiresSessionAndOnboarding, Decision{Outcome: Allow}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.state, tt.access))
		})
	}
}

func TestDecide_LoadingNeverRedirects(t *testing.T) {
	for _, access := range []Access{Public, RequiresSession, RequiresSessionAndOnboarding} {
		d := Decide(session.Loading(), access)
		assert.NotEqual(t, Redirect, d.Outcome, "access %s", access)
		assert.Empty(t, d.Path)
	}
}

func TestTable_Access(t *testing.T) {
	table := NewTable(DefaultRoutes)

	tests := []struct {
		path string
		want Access
	}{
		{"/", Public},
		{"", Public},
		{"/login", Public},
		{"/login/", Public},
		{"/reset-password?token=abc", Public},
		{"/onboarding", RequiresSession},
		{"/settings/profile", RequiresSession},
		{"/dashboard", RequiresSessionAndOnboarding},
		{"/reports/123#summary", RequiresSessionAndOnboarding},
		{"/loginx", RequiresSessionAndOnboarding},
		{"/unknown", RequiresSessionAndOnboarding},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Access(tt.path))
		})
	}
}

func TestTable_Overrides(t *testing.T) {
	routes := append(append([]Route{}, DefaultRoutes...),
		Route{Path: "/pricing", Access: RequiresSession},
		Route{Path: "/reports/shared", Access: Public},
	)
	table := NewTable(routes)

	assert.Equal(t, RequiresSession, table.Access("/pricing"))
	assert.Equal(t, Public, table.Access("/reports/shared/abc"))
	assert.Equal(t, RequiresSessionAndOnboarding, table.Access("/reports/123"))

	d := table.Check(session.Anonymous(), "/reports/shared/abc")
	assert.Equal(t, Allow, d.Outcome)
}

func TestParseAccess(t *testing.T) {
	a, err := ParseAccess(" Onboarded ")
	require.NoError(t, err)
	assert.Equal(t, RequiresSessionAndOnboarding, a)

	_, err = ParseAccess("admin")
	assert.Error(t, err)
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "allow", Decision{Outcome: Allow}.String())
	assert.Equal(t, "suspend", Decision{Outcome: Suspend}.String())
	assert.Equal(t, "redirect /login", Decision{Outcome: Redirect, Path: LoginPath}.String())
}
