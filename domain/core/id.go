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
	// v7 can only fail when the random source does
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

// AnalysisID identifies one persisted DOOR analysis.
type AnalysisID ID

// NewAnalysisID returns a fresh time-ordered analysis identifier.
func NewAnalysisID() AnalysisID {
	return AnalysisID(NewID())
}

func (id AnalysisID) String() string { return ID(id).String() }

// ParseAnalysisID parses a string into AnalysisID
func ParseAnalysisID(s string) (AnalysisID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("analysis ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("analysis ID %q is not a UUID: %w", s, err)
	}
	return AnalysisID(s), nil
}
