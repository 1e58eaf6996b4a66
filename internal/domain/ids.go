package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Identifier prefixes per record kind.
const (
	BookingIDPrefix      = "BK"
	CancellationIDPrefix = "CN"
	ResetIDPrefix        = "PR"
)

const idTimeLayout = "20060102150405"

// Clock returns the current instant.
type Clock func() time.Time

// IDGenerator builds record identifiers from the current second. Two records
// of the same kind created in the same second share an identifier unless
// unique suffixes are enabled.
type IDGenerator struct {
	now    Clock
	unique bool
}

// NewIDGenerator returns a generator reading time from now (time.Now when nil).
func NewIDGenerator(now Clock, unique bool) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now, unique: unique}
}

// Now returns the generator's current instant in UTC.
func (g *IDGenerator) Now() time.Time {
	return g.now().UTC()
}

// NewID returns prefix followed by the UTC second, e.g. BK20250601093000.
func (g *IDGenerator) NewID(prefix string) string {
	return g.IDAt(prefix, g.Now())
}

// IDAt builds the identifier for a known instant.
func (g *IDGenerator) IDAt(prefix string, at time.Time) string {
	id := prefix + at.UTC().Format(idTimeLayout)
	if g.unique {
		id += "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	}
	return id
}
