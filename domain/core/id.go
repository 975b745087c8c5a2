package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RequestID ID
	AOIID     ID
	RunID     ID
)

// String conversions for domain IDs
func (id RequestID) String() string { return ID(id).String() }
func (id AOIID) String() string     { return ID(id).String() }
func (id RunID) String() string     { return ID(id).String() }

// NewRunID mints the identifier for one assembly run; the assembler
// stamps it on every diagnostic the run produces.
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseRequestID parses a string into RequestID
func ParseRequestID(s string) (RequestID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("request ID cannot be empty")
	}
	return RequestID(s), nil
}

// VariableName is the semantic name a band is mapped to, independent of
// the file it came from.
type VariableName string

// String returns the string representation
func (v VariableName) String() string { return string(v) }
