package rescommon

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Object ids are unique only within a resource type, so a 16-char nanoid over
// a URL-safe alphabet is comfortably collision-free at catalog scale.
const (
	objectIdAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	objectIdLength   = 16
)

// NewObjectID mints a new resource object id.
func NewObjectID() string {
	id, err := gonanoid.Generate(objectIdAlphabet, objectIdLength)
	if err != nil {
		// the only failure mode is the OS entropy source
		panic(err)
	}
	return id
}
