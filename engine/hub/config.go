package hub

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Config is the configuration of a hub.
type Config struct {
	// ListenAddr is the address the HTTP server listens on.
	ListenAddr string

	// NodeToken is the shared credential collectors must present. Empty accepts
	// any collector.
	NodeToken string

	// AdminUser and AdminPassword gate the reset and admin command routes with
	// basic auth. An empty password disables those routes.
	AdminUser     string
	AdminPassword string

	// ViewerRateLimit is the minimum allowance of push messages per second sent to a
	// single viewer. The allowance is raised to one message per second per cached
	// node. Messages above it are dropped for that viewer.
	ViewerRateLimit rate.Limit

	// ViewerBurst is the minimum number of push messages a viewer may receive at
	// once. It is raised to the number of cached nodes.
	ViewerBurst int

	// ViewerBufferSize is the number of push messages queued per viewer before
	// new ones are dropped.
	ViewerBufferSize int

	// SnapshotMaxAge is advertised in the Cache-Control header of snapshot responses.
	SnapshotMaxAge time.Duration
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:       ":3000",
		AdminUser:        "admin",
		ViewerRateLimit:  10,
		ViewerBurst:      20,
		ViewerBufferSize: 64,
		SnapshotMaxAge:   time.Second,
	}
}

func (c Config) validate() error {
	if c.ViewerRateLimit <= 0 {
		return fmt.Errorf("viewer rate limit must be positive, got %v", c.ViewerRateLimit)
	}
	if c.ViewerBurst <= 0 {
		return fmt.Errorf("viewer burst must be positive, got %d", c.ViewerBurst)
	}
	if c.ViewerBufferSize <= 0 {
		return fmt.Errorf("viewer buffer size must be positive, got %d", c.ViewerBufferSize)
	}
	if c.SnapshotMaxAge < 0 {
		return fmt.Errorf("snapshot max age must not be negative, got %v", c.SnapshotMaxAge)
	}
	return nil
}

func (c Config) adminEnabled() bool {
	return c.AdminPassword != ""
}
