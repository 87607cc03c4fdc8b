// Package permission decides what an acting user may do with bookings and
// tardiness entries.
package permission

import (
	"fmt"
	"strings"
)

// Role is the coarse authority level of an actor.
type Role string

const (
	// RoleAdmin may cancel any booking.
	RoleAdmin Role = "admin"
	// RoleStandard may cancel only bookings held in their own name.
	RoleStandard Role = "standard"
)

// ParseRole converts a textual role into a Role.
func ParseRole(value string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(value))); r {
	case RoleAdmin, RoleStandard:
		return r, nil
	}
	return "", fmt.Errorf("permission: unknown role %q", value)
}

// Actor is the user issuing a command.
type Actor struct {
	ID          string
	Role        Role
	DisplayName string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Known reports whether the actor carries an identity and a recognised role.
func (a Actor) Known() bool {
	return a.ID != "" && (a.Role == RoleAdmin || a.Role == RoleStandard)
}

// CanCancel reports whether actor may cancel a booking held under holderName.
// The admin role alone is enough. Standard actors also need an ID, and their
// display name must equal holderName exactly, with no case folding or trimming.
func CanCancel(actor Actor, holderName string) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Known() && actor.DisplayName == holderName
}

// CanBook reports whether actor may create bookings.
func CanBook(actor Actor) bool {
	return actor.Known()
}

// CanModifyEntry reports whether actor may record or change tardiness entries.
func CanModifyEntry(actor Actor) bool {
	return actor.Known()
}
