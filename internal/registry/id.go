package registry

import "github.com/google/uuid"

// NewID returns a UUIDv7: a 48-bit millisecond timestamp followed by 74
// random bits.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
