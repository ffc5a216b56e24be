package types

import (
	"time"

	"github.com/google/uuid"
)

// SchemaID identifies one flattened leaf layout.
type SchemaID string

// SampleID identifies one extracted sample.
type SampleID string

// NewSchemaID generates a UUIDv7 schema identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewSchemaID() SchemaID {
	return SchemaID(uuid.Must(uuid.NewV7()).String())
}

// NewSampleID generates a UUIDv7 sample identifier.
// Time-ordered IDs keep sequential inserts clustered in B-tree pages.
func NewSampleID() SampleID {
	return SampleID(uuid.Must(uuid.NewV7()).String())
}

// ParseSchemaID validates and converts a string to SchemaID.
func ParseSchemaID(s string) (SchemaID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return SchemaID(s), nil
}

// SampleIDTime extracts the timestamp embedded in a UUIDv7 sample ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func SampleIDTime(id SampleID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
