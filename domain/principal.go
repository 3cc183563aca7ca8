// Package domain contains core concepts of the chat system.
// This file defines the Principal identity resolved at connection time.
package domain

// Principal is an authenticated identity. It is owned by the identity system
// and read-only here.
type Principal struct {
	ID   string
	Name string
}
