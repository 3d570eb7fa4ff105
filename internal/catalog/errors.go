package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the requested remote resource does not exist.
var ErrNotFound = errors.New("catalog: resource not found")

// UserError is one field-level error reported by a catalog mutation.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// MutationError carries the user errors reported by a mutation that
// succeeded at the transport level but was rejected by the catalog.
type MutationError struct {
	Operation  string
	UserErrors []UserError
}

// Error implements the error interface.
func (e *MutationError) Error() string {
	messages := make([]string, 0, len(e.UserErrors))
	for _, userErr := range e.UserErrors {
		if len(userErr.Field) > 0 {
			messages = append(messages, fmt.Sprintf("%s: %s", strings.Join(userErr.Field, "."), userErr.Message))
		} else {
			messages = append(messages, userErr.Message)
		}
	}
	return fmt.Sprintf("catalog: %s rejected: %s", e.Operation, strings.Join(messages, "; "))
}

func mutationError(operation string, userErrors []UserError) error {
	if len(userErrors) == 0 {
		return nil
	}
	return &MutationError{Operation: operation, UserErrors: userErrors}
}
