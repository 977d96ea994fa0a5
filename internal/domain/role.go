package domain

import (
	"fmt"
	"strings"
)

// Role enumerates the user roles in the management hierarchy.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
)

// roleRanks orders roles by authority; lower rank means more authority.
var roleRanks = map[Role]int{
	RoleAdmin:   1,
	RoleManager: 2,
	RoleStaff:   3,
}

// Rank returns the authority rank of the role. Unknown roles rank last.
func (r Role) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return len(roleRanks) + 1
}

// CanManage reports whether r may manage other. A role manages itself and
// every role of equal or lesser authority.
func (r Role) CanManage(other Role) bool {
	return r.Rank() <= other.Rank()
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// ParseRole converts a case-insensitive string into a Role.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", fmt.Errorf("invalid role: %s", value)
	}
	return role, nil
}
