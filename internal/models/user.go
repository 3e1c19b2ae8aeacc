// Package models contains the domain model of the service: merchants,
// their connected Shopify stores, subscription plans and report schedules.
package models

import "time"

// User represents a registered merchant account.
type User struct {
	UID          string
	Email        string
	Username     string
	PasswordHash string
	Role         string // admin or user
	TrialEndsAt  time.Time
	Subscribed   bool
	CreatedAt    time.Time
}

// TrialExpired reports whether the account's trial window has passed.
// The window is fixed at registration and is never moved by subscribing.
func (u *User) TrialExpired(now time.Time) bool {
	return now.After(u.TrialEndsAt)
}
