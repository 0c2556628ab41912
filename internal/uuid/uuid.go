package uuid

import (
	gouuid "github.com/google/uuid"
)

// UUID wraps google/uuid so that it can be bound from URL query
// parameters, which gin does not support for uuid.UUID itself.
type UUID struct {
	gouuid.UUID
}

// Nil is the zero UUID. Query filters treat it as unset.
var Nil UUID

// UnmarshalParam implements gin's query parameter binding. An empty
// parameter maps to Nil.
func (u *UUID) UnmarshalParam(p string) error {
	if p == "" {
		*u = Nil
		return nil
	}

	parsed, err := gouuid.Parse(p)
	if err != nil {
		return err
	}

	*u = UUID{parsed}
	return nil
}
