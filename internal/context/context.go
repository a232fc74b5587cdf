// Package context is a set of shorter names for the standard context
// package, matching the convention used across the broader orly.dev tree.
package context

import "context"

type (
	// T - context.Context
	T = context.Context
	// F - context.CancelFunc
	F = context.CancelFunc
)

var (
	// Bg - context.Background
	Bg = context.Background
	// Cancel - context.WithCancel
	Cancel = context.WithCancel
	// Timeout - context.WithTimeout
	Timeout = context.WithTimeout
)
