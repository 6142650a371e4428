// ABOUTME: Composite contact keys of the form "<origin>_<id>"
// ABOUTME: Parses prefixed identifiers once at the boundary into a typed ContactKey
package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCompositeKey = errors.New("invalid composite key")
	ErrUnknownOrigin       = errors.New("unknown origin")
)

const keySeparator = "_"

// ContactKey is the globally unique identity of a source record.
type ContactKey struct {
	Origin Origin `json:"origin"`
	ID     string `json:"id"`
}

// String renders the composite form, e.g. "valuation_3f2c...".
func (k ContactKey) String() string {
	return string(k.Origin) + keySeparator + k.ID
}

// ParseCompositeKey splits on the first separator only, so ids that contain
// underscores survive intact.
func ParseCompositeKey(s string) (ContactKey, error) {
	tag, id, found := strings.Cut(strings.TrimSpace(s), keySeparator)
	if !found || tag == "" || id == "" {
		return ContactKey{}, fmt.Errorf("%w: %q", ErrInvalidCompositeKey, s)
	}
	origin, err := ParseOrigin(tag)
	if err != nil {
		return ContactKey{}, fmt.Errorf("%w: %q: %w", ErrInvalidCompositeKey, s, err)
	}
	return ContactKey{Origin: origin, ID: id}, nil
}

// ParseCompositeKeys parses every key, failing on the first malformed one.
func ParseCompositeKeys(values []string) ([]ContactKey, error) {
	keys := make([]ContactKey, 0, len(values))
	for _, v := range values {
		k, err := ParseCompositeKey(v)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}
