package domain

import "github.com/google/uuid"

// Role gates access to parts of the API. Roles come from the external
// identity collaborator; the server only checks membership.
type Role string

const (
	// RolePigEditor allows single-record create and search.
	RolePigEditor Role = "pig_editor"

	// RoleBulkEditor allows starting and resolving bulk imports.
	RoleBulkEditor Role = "bulk_editor"

	// RoleBulkAdmin additionally allows fetching other operators' imports
	// and archiving finished ones.
	RoleBulkAdmin Role = "bulk_admin"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Roles []Role    `json:"roles"`
}

// HasRole reports whether the principal holds the given role.
func (p *Principal) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal holds at least one of the roles.
func (p *Principal) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}
