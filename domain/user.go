// Package domain contains core concepts of the social network.
// Entities here carry invariants only; no storage, runtime, or UI logic.
package domain

import "strings"

// User is a registered member. The repository assigns ID on creation.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" validate:"required,email"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// MatchesName reports whether query is a case-insensitive substring of the first or last name.
func (u User) MatchesName(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(u.FirstName), q) ||
		strings.Contains(strings.ToLower(u.LastName), q)
}
