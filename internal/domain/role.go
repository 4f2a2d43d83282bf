package domain

import (
	"errors"
	"strings"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	RoleOwner   Role = "owner"
)

var ErrInvalidRole = errors.New("invalid role")

var roleRank = map[Role]int{
	RoleStudent: 1,
	RoleAdmin:   2,
	RoleOwner:   3,
}

func ParseRole(v string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(v)))
	if _, ok := roleRank[r]; !ok {
		return "", ErrInvalidRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank is 0 for unknown roles.
func (r Role) Rank() int { return roleRank[r] }

func (r Role) String() string { return string(r) }

// AllowedBy reports whether r is one of the listed roles.
func (r Role) AllowedBy(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// Assignable roles can be granted through reassignment. Owner is seeded only.
func (r Role) Assignable() bool {
	return r == RoleStudent || r == RoleAdmin
}
