package utils

import "github.com/google/uuid"

// GenerateID returns a new unique identifier, e.g. "bid_3f0c...".
func GenerateID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
