package domain

import "github.com/google/uuid"

// UserID uniquely identifies the owner of a scan. Subjects of verified JWTs
// are parsed into this type by the API security handler.
type UserID uuid.UUID

// ParseUserID parses a textual UUID into a UserID.
func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err //nolint: wrapcheck
	}

	return UserID(id), nil
}

// String returns the canonical UUID representation.
func (id UserID) String() string { return uuid.UUID(id).String() }
