package uid

import "github.com/google/uuid"

// UUID generates version 7 UUIDs, falling back to version 4.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

// GenerateUUID returns a new UUID.
func (u *UUID) GenerateUUID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Generate returns a new UUID in its canonical string form.
func (u *UUID) Generate() string {
	return u.GenerateUUID().String()
}
