package schedule

import (
	"fmt"
	"time"
)

// LoadLocation resolves an IANA timezone identifier. Families always store
// IANA names, never fixed offsets, so offsets stay correct across DST
// transitions.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("timezone is required")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// ValidTimezone reports whether name is a loadable IANA identifier.
func ValidTimezone(name string) bool {
	_, err := LoadLocation(name)
	return err == nil
}
