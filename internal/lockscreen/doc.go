// Package lockscreen holds the views that drive an unlock.Controller: a
// full-screen bubbletea view (tui) and a line prompt for plain terminals
// (prompt). Both are thin; every decision is the controller's.
package lockscreen

import (
	"context"

	"github.com/dmitrijs2005/gophlock/internal/unlock"
)

// Unlocker is the controller surface a view drives.
type Unlocker interface {
	Activate(ctx context.Context, hint *bool)
	SubmitSecret(secret string)
	RetryBiometric()
	Dispose()
}

// Translator renders UI message IDs.
type Translator interface {
	T(id string) string
}

var _ Unlocker = (*unlock.Controller)(nil)
