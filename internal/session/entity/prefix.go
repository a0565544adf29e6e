package entity

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	PrefixUser    = "usr"
	PrefixDevice  = "dev"
	PrefixSession = "ses"

	prefixSeparator = "-"
)

// ErrInvalidPrefixedID is returned when a prefixed id has the wrong prefix or
// does not carry a UUID.
var ErrInvalidPrefixedID = errors.New("session: invalid prefixed id")

// FormatID renders id as "<prefix>-<uuid>".
func FormatID(prefix string, id uuid.UUID) string {
	return prefix + prefixSeparator + id.String()
}

// ParseID splits s on its first "-" and parses the remainder, which must be
// a UUID, when the leading part equals prefix.
func ParseID(prefix, s string) (uuid.UUID, error) {
	got, raw, ok := strings.Cut(s, prefixSeparator)
	if !ok || got != prefix {
		return uuid.Nil, ErrInvalidPrefixedID
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidPrefixedID
	}
	return id, nil
}

func (u User) PrefixedID() string    { return FormatID(PrefixUser, u.ID) }
func (d Device) PrefixedID() string  { return FormatID(PrefixDevice, d.ID) }
func (s Session) PrefixedID() string { return FormatID(PrefixSession, s.ID) }
