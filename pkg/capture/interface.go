// Package capture drives an isolated browser session to a URL and packages
// what it observed into a domain.SignalBundle.
//
//go:generate mockgen -package mockcapture -source=interface.go -destination=mock/mockcapture.go
package capture

import (
	"context"
	"phishvault/pkg/domain"
)

// Observer receives passive events from a browser session. It is registered
// before navigation starts and may be called from any goroutine.
type Observer interface {
	// OnConsole is called for every message the page writes to its console.
	OnConsole(message string)
	// OnNavigate is called for every URL the top-level frame navigates to,
	// redirects included.
	OnNavigate(url string)
}

// Snapshot is the state of a session after the page settled.
type Snapshot struct {
	// FinalURL is the URL of the top-level document.
	FinalURL string
	// HTML is the serialized rendered document.
	HTML string
	// Cookies holds every cookie visible in the browsing context.
	Cookies []domain.Cookie
}

// Session is one isolated browsing context. Sessions never share cookies,
// storage or listeners with each other.
type Session interface {
	// Navigate loads url and returns once the document finished loading.
	Navigate(ctx context.Context, url string) error
	// HasElement reports, without waiting, whether an element matching
	// selector is in the current document.
	HasElement(ctx context.Context, selector string) (bool, error)
	// WaitFor blocks until an element matching selector is ready.
	WaitFor(ctx context.Context, selector string) error
	// Snapshot reads the current URL, markup and cookies.
	Snapshot(ctx context.Context) (Snapshot, error)
	// Screenshot captures the visible viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	// Close releases the browsing context. It must be safe to call after a
	// failed navigation.
	Close() error
}

// BrowserDriver opens isolated browsing sessions.
type BrowserDriver interface {
	// OpenContext returns a fresh session whose events are delivered to obs.
	// An error means the browser engine itself is unusable.
	OpenContext(ctx context.Context, obs Observer) (Session, error)
}

// ScreenshotStore persists screenshots and returns a reference to them.
type ScreenshotStore interface {
	Save(ctx context.Context, png []byte) (string, error)
}
