// Package specversion enforces the ATT&CK spec-version gate: every
// imported object declares the schema revision it was authored against,
// and the workbench refuses objects authored against a revision newer
// than the one it understands.
//
// Comparison uses semantic-version ordering, so "2.10.0" is newer than
// "2.9.0". Objects that declare no version are treated as authored
// against Default.
package specversion

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// Current is the newest ATT&CK spec version this workbench
	// understands. Objects declaring a strictly greater version are
	// rejected on import and flagged by the validator.
	Current = "3.2.0"

	// Default is assumed for objects that declare no spec version.
	Default = "2.0.0"
)

// Sentinel errors returned by Check.
var (
	// ErrUnsupported indicates the declared version is newer than Current.
	ErrUnsupported = errors.New("attack spec version not supported")

	// ErrInvalid indicates the declared version is not a valid semantic
	// version.
	ErrInvalid = errors.New("invalid attack spec version")
)

var current = semver.MustParse(Current)

// Check validates a declared spec version against Current. An empty
// declared version is treated as Default and always passes. A version
// strictly greater than Current fails with ErrUnsupported; an
// unparseable version fails with ErrInvalid.
func Check(declared string) error {
	if declared == "" {
		declared = Default
	}
	v, err := semver.NewVersion(declared)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalid, declared)
	}
	if v.GreaterThan(current) {
		return fmt.Errorf("%w: object declares %s, workbench supports up to %s", ErrUnsupported, declared, Current)
	}
	return nil
}
