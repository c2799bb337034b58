package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atrium-app/atrium/internal/policy"
)

func TestCanAccessAdminAllowsEverySection(t *testing.T) {
	sets := []policy.RoleSet{
		policy.NewRoleSet(policy.RoleAdmin),
		policy.NewRoleSet(policy.RoleAdmin, policy.RoleUser),
		policy.NewRoleSet(policy.RoleAdmin, policy.RoleGames),
		policy.NewRoleSet(policy.RoleAdmin, policy.RoleUser, policy.RoleGames),
	}
	for _, roles := range sets {
		for _, section := range policy.Sections {
			if !policy.CanAccess(roles, section) {
				t.Fatalf("roles %v denied section %s", roles.Names(), section)
			}
		}
	}
}

func TestCanAccessAdminSectionDeniedWithoutAdminRole(t *testing.T) {
	sets := []policy.RoleSet{
		policy.NewRoleSet(),
		policy.NewRoleSet(policy.RoleUser),
		policy.NewRoleSet(policy.RoleGames),
		policy.NewRoleSet(policy.RoleUser, policy.RoleGames),
	}
	for _, roles := range sets {
		if policy.CanAccess(roles, policy.SectionAdmin) {
			t.Fatalf("roles %v unexpectedly allowed admin section", roles.Names())
		}
	}
}

func TestCanAccessGamesGating(t *testing.T) {
	assert.False(t, policy.CanAccess(policy.NewRoleSet(), policy.SectionGames))
	assert.True(t, policy.CanAccess(policy.NewRoleSet(policy.RoleGames), policy.SectionGames))
	assert.True(t, policy.CanAccess(policy.NewRoleSet(policy.RoleGames), policy.SectionHome))
	assert.False(t, policy.CanAccess(policy.NewRoleSet(policy.RoleUser), policy.SectionGames))
}

func TestCanAccessOpenSections(t *testing.T) {
	open := []policy.Section{policy.SectionHome, policy.SectionNews, policy.SectionSettings}
	for _, section := range open {
		assert.True(t, policy.CanAccess(policy.NewRoleSet(), section), "empty set should reach %s", section)
		assert.True(t, policy.CanAccess(policy.NewRoleSet(policy.RoleUser), section))
	}
}

func TestCanAccessIsTotal(t *testing.T) {
	// Exhaustive over the power set of roles and every section: the engine
	// must always answer, including for unknown sections.
	subsets := [][]policy.Role{
		{},
		{policy.RoleAdmin},
		{policy.RoleUser},
		{policy.RoleGames},
		{policy.RoleAdmin, policy.RoleUser},
		{policy.RoleAdmin, policy.RoleGames},
		{policy.RoleUser, policy.RoleGames},
		{policy.RoleAdmin, policy.RoleUser, policy.RoleGames},
	}
	for _, subset := range subsets {
		roles := policy.NewRoleSet(subset...)
		for _, section := range append(policy.Sections, policy.Section("unknown")) {
			_ = policy.CanAccess(roles, section)
		}
	}
}

func TestAllowedSections(t *testing.T) {
	assert.Equal(t,
		[]policy.Section{policy.SectionHome, policy.SectionNews, policy.SectionGames, policy.SectionSettings, policy.SectionAdmin},
		policy.AllowedSections(policy.NewRoleSet(policy.RoleAdmin)))
	assert.Equal(t,
		[]policy.Section{policy.SectionHome, policy.SectionNews, policy.SectionSettings},
		policy.AllowedSections(policy.NewRoleSet(policy.RoleUser)))
	assert.Equal(t,
		[]policy.Section{policy.SectionHome, policy.SectionNews, policy.SectionGames, policy.SectionSettings},
		policy.AllowedSections(policy.NewRoleSet(policy.RoleUser, policy.RoleGames)))
}

func TestRoleValidation(t *testing.T) {
	for _, r := range policy.Roles {
		assert.True(t, r.Valid())
	}
	assert.False(t, policy.Role("superuser").Valid())
	assert.False(t, policy.Role("").Valid())
}

func TestRoleSetNamesSorted(t *testing.T) {
	names := policy.NewRoleSet(policy.RoleUser, policy.RoleAdmin, policy.RoleGames).Names()
	assert.Equal(t, []string{"admin", "games", "user"}, names)
}

func TestHasBaseline(t *testing.T) {
	assert.True(t, policy.NewRoleSet(policy.RoleAdmin).HasBaseline())
	assert.True(t, policy.NewRoleSet(policy.RoleUser).HasBaseline())
	assert.False(t, policy.NewRoleSet(policy.RoleGames).HasBaseline())
	assert.False(t, policy.NewRoleSet().HasBaseline())
}
