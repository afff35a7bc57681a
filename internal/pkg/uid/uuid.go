package uid

import "github.com/google/uuid"

// UUID is a StringID backed by google/uuid. IDs are version 7, so they sort
// by creation time.
type UUID struct{}

func NewUUID() *UUID { return &UUID{} }

func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 needs a clock reading, fall back to random v4
		return uuid.NewString()
	}
	return id.String()
}
