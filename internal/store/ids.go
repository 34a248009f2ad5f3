package store

import "github.com/google/uuid"

// Origin is the id prefix recording how a record was created
type Origin string

const (
	OriginManual Origin = "manual"
	OriginAuto   Origin = "auto"
)

// NewID returns a collision-free id such as "auto-01912f4e-...".
// UUIDv7 is time ordered, so ids created in quick succession still sort by creation.
func NewID(origin Origin) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return string(origin) + "-" + id.String()
}
