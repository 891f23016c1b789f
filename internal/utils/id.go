package utils

import (
	"github.com/google/uuid"
)

// TempIDPrefix marks identifiers that were never assigned by a server.
const TempIDPrefix = "tmp-"

// NewID returns a random unique identifier.
func NewID() string {
	return uuid.NewString()
}

// NewTempID returns a client-side placeholder id for an unconfirmed record.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}
