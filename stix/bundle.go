package stix

import (
	"encoding/json"
	"fmt"
)

// Bundle is the wire-format envelope carrying a set of objects for
// transport. Bundles produced by an export carry exactly one collection
// object plus the member objects its manifest declares.
type Bundle struct {
	Type    string    `json:"type"`
	ID      string    `json:"id"`
	Objects []*Object `json:"objects"`
}

// NewBundle returns an empty bundle with a fresh identifier.
func NewBundle() *Bundle {
	return &Bundle{Type: TypeBundle, ID: NewBundleID()}
}

// ParseBundle decodes a bundle from its JSON wire form and checks the
// envelope structure.
func ParseBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBundle, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks the envelope structure: a bundle type tag and a
// non-nil object list. Object contents are the validator's concern.
func (b *Bundle) Validate() error {
	if b.Type != TypeBundle {
		return fmt.Errorf("%w: type is %q, want %q", ErrMalformedBundle, b.Type, TypeBundle)
	}
	if b.Objects == nil {
		return fmt.Errorf("%w: missing objects", ErrMalformedBundle)
	}
	return nil
}

// Collection returns the single collection object of the bundle.
// It fails when the bundle carries none or more than one, or when the
// collection lacks a logical identifier.
func (b *Bundle) Collection() (*Object, error) {
	var found *Object
	for _, obj := range b.Objects {
		if obj.Type != TypeCollection {
			continue
		}
		if found != nil {
			return nil, ErrMultipleCollections
		}
		found = obj
	}
	if found == nil {
		return nil, ErrMissingCollection
	}
	if found.ID == "" {
		return nil, ErrMissingCollectionID
	}
	return found, nil
}
