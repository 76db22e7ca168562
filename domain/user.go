// Package domain contains core concepts of the chat system.
// This file defines User identities and their credentials.
// No runtime, network, or UI logic should be added here.
package domain

// UserID is the stable identity of a registered user.
type UserID string

func (u UserID) String() string { return string(u) }

// User is created once at registration and never mutated afterwards.
// PasswordHash is opaque to everything but the auth package.
type User struct {
	ID           UserID `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Credentials is what a successful login hands back to the client.
type Credentials struct {
	Token  string `json:"token"`
	UserID UserID `json:"user_id"`
}
