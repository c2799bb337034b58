// Package policy implements the access rules that decide which application
// sections a set of roles may reach. Evaluation is pure and total: every
// combination of role set and section yields an answer, never an error.
package policy

import "sort"

// Role is a named capability tag attached to a user. The enumeration is
// closed; anything else is rejected at the mutation boundary.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGames Role = "games"
)

// Roles lists the closed enumeration.
var Roles = []Role{RoleAdmin, RoleUser, RoleGames}

// Valid reports whether the role belongs to the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGames:
		return true
	}
	return false
}

// Section is a gated area of the application.
type Section string

const (
	SectionHome     Section = "home"
	SectionNews     Section = "news"
	SectionGames    Section = "games"
	SectionSettings Section = "settings"
	SectionAdmin    Section = "admin"
)

// Sections lists every gated area.
var Sections = []Section{SectionHome, SectionNews, SectionGames, SectionSettings, SectionAdmin}

// Valid reports whether the section is known.
func (s Section) Valid() bool {
	switch s {
	case SectionHome, SectionNews, SectionGames, SectionSettings, SectionAdmin:
		return true
	}
	return false
}

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has reports membership.
func (rs RoleSet) Has(role Role) bool {
	_, ok := rs[role]
	return ok
}

// Names returns the sorted role names, the canonical claim representation.
func (rs RoleSet) Names() []string {
	names := make([]string, 0, len(rs))
	for r := range rs {
		names = append(names, string(r))
	}
	sort.Strings(names)
	return names
}

// HasBaseline reports whether the set contains at least one baseline role.
// Every active account must hold admin or user; games alone never grants
// anything.
func (rs RoleSet) HasBaseline() bool {
	return rs.Has(RoleAdmin) || rs.Has(RoleUser)
}

// CanAccess decides whether a role set may reach a section.
//
// Precedence: admin allows every section; the admin section is otherwise
// denied; games requires the games role; home, news and settings are open to
// anyone who reached the check. Callers must not invoke this with partial or
// still-loading role data pretending it is "no roles" — suspend evaluation
// until the set is actually known.
func CanAccess(roles RoleSet, section Section) bool {
	if roles.Has(RoleAdmin) {
		return true
	}
	switch section {
	case SectionAdmin:
		return false
	case SectionGames:
		return roles.Has(RoleGames)
	default:
		return true
	}
}

// AllowedSections lists every section the role set may reach, in the fixed
// section order.
func AllowedSections(roles RoleSet) []Section {
	allowed := make([]Section, 0, len(Sections))
	for _, s := range Sections {
		if CanAccess(roles, s) {
			allowed = append(allowed, s)
		}
	}
	return allowed
}
