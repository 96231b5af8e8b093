package stix

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewIdentifier generates a fresh logical identifier for an object of the
// given type, in the form "<type>--<uuid>".
func NewIdentifier(objectType string) string {
	return objectType + "--" + uuid.NewString()
}

// NewBundleID generates a fresh bundle identifier.
func NewBundleID() string {
	return TypeBundle + "--" + uuid.NewString()
}

// TypeOfID returns the object type encoded in an identifier, or an error
// if the identifier is not in "<type>--<uuid>" form.
func TypeOfID(id string) (string, error) {
	objectType, rest, ok := strings.Cut(id, "--")
	if !ok || objectType == "" {
		return "", fmt.Errorf("malformed identifier %q", id)
	}
	if _, err := uuid.Parse(rest); err != nil {
		return "", fmt.Errorf("malformed identifier %q: %w", id, err)
	}
	return objectType, nil
}
