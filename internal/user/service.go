package user

import (
	"fmt"

	"github.com/google/uuid"
)

// CreateProvisionalActor generates a fresh actor ID for a browser that
// does not carry one yet. The ID is only an identity handle; it grants
// no capability by itself.
func CreateProvisionalActor() (string, error) {
	newUUID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID v7: %w", err)
	}
	return newUUID.String(), nil
}

// IsValidUUID reports whether s parses as a UUID.
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
