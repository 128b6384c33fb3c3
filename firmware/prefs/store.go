// Package prefs is the durable key/value store behind the task list and the
// display style.
//
// Keys live in namespaces ("tasks", "style"). Every Put and Remove is
// individually durable: when it returns nil the value survives power loss.
// A crash between two calls may lose the second but never the first.
package prefs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned when the backing storage was never opened
	// or stopped accepting writes.
	ErrUnavailable = errors.New("prefs: storage unavailable")
	// ErrCorrupt reports a store image that could not be parsed.
	ErrCorrupt = errors.New("prefs: corrupt store")
	// ErrNoSpace is returned when live data no longer fits after compaction.
	ErrNoSpace = errors.New("prefs: no space")
)

// Store is a namespaced preferences store.
//
// Getters return def when the key is missing or unreadable.
type Store interface {
	GetString(ns, key, def string) string
	GetBool(ns, key string, def bool) bool
	PutString(ns, key, value string) error
	PutBool(ns, key string, value bool) error
	Remove(ns, key string) error
	Close() error
}

// Unavailable returns a Store that serves defaults and rejects every write
// with ErrUnavailable wrapping cause.
func Unavailable(cause error) Store {
	return unavailable{cause: cause}
}

type unavailable struct {
	cause error
}

func (u unavailable) err() error {
	if u.cause == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, u.cause)
}

func (unavailable) GetString(_, _, def string) string   { return def }
func (unavailable) GetBool(_, _ string, def bool) bool  { return def }
func (u unavailable) PutString(_, _, _ string) error    { return u.err() }
func (u unavailable) PutBool(_, _ string, _ bool) error { return u.err() }
func (u unavailable) Remove(_, _ string) error          { return u.err() }
func (unavailable) Close() error                        { return nil }

func validKey(ns, key string) error {
	if ns == "" || key == "" {
		return fmt.Errorf("prefs: empty namespace or key (%q/%q)", ns, key)
	}
	if len(ns) > maxNameLen || len(key) > maxNameLen {
		return fmt.Errorf("prefs: name too long (%q/%q)", ns, key)
	}
	return nil
}

const maxNameLen = 255
