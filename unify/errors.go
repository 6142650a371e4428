// ABOUTME: Error taxonomy for the engine: sentinel errors plus typed fetch and mutation failures
// ABOUTME: Fetch and mutation errors stay distinguishable through errors.As
package unify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/leadbook/models"
)

var (
	ErrContactNotFound = errors.New("contact not found in stream")
	ErrEmptyPatch      = errors.New("patch changes nothing")
	ErrNoTargets       = errors.New("no target contacts")
)

// FetchError reports the source whose read failed an aggregation run.
type FetchError struct {
	Origin models.Origin
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s leads: %v", e.Origin, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MutationError reports a remote mutation failure. By the time it is
// returned the optimistic patch has already been rolled back.
type MutationError struct {
	MutationID string
	Keys       []models.ContactKey
	Err        error
}

func (e *MutationError) Error() string {
	keys := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		keys[i] = k.String()
	}
	return fmt.Sprintf("mutation %s on %s rolled back: %v", e.MutationID, strings.Join(keys, ","), e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
