package engine

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for the failure taxonomy. Transport failures mean the
// rendering session itself is broken and trigger reinitialization outside
// the numbered retry budget; navigation timeouts count against it.
var (
	ErrTransport         = errors.New("rendering session transport failure")
	ErrNavigationTimeout = errors.New("page navigation timed out")
)

// SettleOptions controls how long a navigation may take and how long to
// wait for dynamic content afterwards. The settle wait is soft: extraction
// proceeds when it expires.
type SettleOptions struct {
	NavigationTimeout time.Duration
	SettleTimeout     time.Duration
}

// Element is one matched node on a settled page.
type Element interface {
	// Text returns the element's text content.
	Text() (string, error)
	// Attribute returns the named attribute, or nil if absent.
	Attribute(name string) (*string, error)
	// Visible reports whether the element is rendered visibly.
	Visible() (bool, error)
	// Ancestry returns structural markers (id plus classes) for the
	// element and each ancestor, ordered from the element to the page root.
	Ancestry() ([]string, error)
}

// Session is the stateful rendering resource: one loaded page at a time.
// A session must not be shared across concurrent queries; callers serialize
// access to an instance. Reinitialize fully replaces session identity.
type Session interface {
	Navigate(ctx context.Context, url string, opts SettleOptions) error
	// QueryAll returns every element matching the selector, without waiting.
	QueryAll(selector string) ([]Element, error)
	// Query returns the first match, or nil when the selector matches nothing.
	Query(selector string) (Element, error)
	// PageText returns a coarse page-level text snapshot.
	PageText() (string, error)
	Scroll(ctx context.Context, deltaY int) error
	Reinitialize(ctx context.Context) error
	Close() error
}

// SessionFactory acquires a fresh session per query.
type SessionFactory interface {
	New(ctx context.Context) (Session, error)
}
