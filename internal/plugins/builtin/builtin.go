// Package builtin holds the plugins kiosk ships with.
package builtin

import (
	"time"

	"github.com/pders01/kiosk/internal/plugins"
)

// NewRegistry returns a registry with every built-in plugin registered.
func NewRegistry(timeout time.Duration) *plugins.Registry {
	r := plugins.NewRegistry(timeout)
	r.Register(NewRedditPlugin(), NewYouTubePlugin())
	return r
}
