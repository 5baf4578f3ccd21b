package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the recurrence frequency of a schedule.
type Kind string

const (
	Daily    Kind = "daily"
	Workdays Kind = "workdays" // Mon-Fri
	Weekends Kind = "weekends" // Sat-Sun
	Weekly   Kind = "weekly"   // requires DayOfWeek
	Monthly  Kind = "monthly"  // requires DayOfMonth
	Manual   Kind = "manual"   // never auto-triggers
)

var kindNames = map[Kind]bool{
	Daily:    true,
	Workdays: true,
	Weekends: true,
	Weekly:   true,
	Monthly:  true,
	Manual:   true,
}

// ParseKind validates and returns a Kind from its string form.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !kindNames[k] {
		return "", fmt.Errorf("unknown schedule kind: %q", s)
	}
	return k, nil
}

// TimeOfDay is a wall-clock time in the owning family's local timezone.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day: %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour: %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute: %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// String formats the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Schedule is an immutable recurrence rule attached to a task template.
// Equality is by value. TimeOfDay is ignored for Manual; DayOfWeek is set
// iff Kind is Weekly; DayOfMonth is set iff Kind is Monthly.
type Schedule struct {
	Kind       Kind          `json:"kind"`
	TimeOfDay  TimeOfDay     `json:"time_of_day"`
	DayOfWeek  *time.Weekday `json:"day_of_week,omitempty"`
	DayOfMonth *int          `json:"day_of_month,omitempty"`
}

// Validate checks the kind-specific parameter requirements.
func (s Schedule) Validate() error {
	if !kindNames[s.Kind] {
		return fmt.Errorf("unknown schedule kind: %q", s.Kind)
	}
	if s.TimeOfDay.Hour < 0 || s.TimeOfDay.Hour > 23 || s.TimeOfDay.Minute < 0 || s.TimeOfDay.Minute > 59 {
		return fmt.Errorf("invalid time of day: %s", s.TimeOfDay)
	}

	switch s.Kind {
	case Weekly:
		if s.DayOfWeek == nil {
			return fmt.Errorf("weekly schedule requires a day of week")
		}
		if *s.DayOfWeek < time.Sunday || *s.DayOfWeek > time.Saturday {
			return fmt.Errorf("invalid day of week: %d", *s.DayOfWeek)
		}
	case Monthly:
		if s.DayOfMonth == nil {
			return fmt.Errorf("monthly schedule requires a day of month")
		}
		if *s.DayOfMonth < 1 || *s.DayOfMonth > 31 {
			return fmt.Errorf("day of month out of range: %d", *s.DayOfMonth)
		}
	default:
		if s.DayOfWeek != nil {
			return fmt.Errorf("day of week is only valid for weekly schedules")
		}
		if s.DayOfMonth != nil {
			return fmt.Errorf("day of month is only valid for monthly schedules")
		}
	}
	return nil
}

// matchesDay reports whether the schedule fires on the given local
// calendar day. Monthly schedules never clamp: DayOfMonth=31 simply skips
// months with fewer days.
func (s Schedule) matchesDay(day time.Time) bool {
	switch s.Kind {
	case Daily:
		return true
	case Workdays:
		wd := day.Weekday()
		return wd >= time.Monday && wd <= time.Friday
	case Weekends:
		wd := day.Weekday()
		return wd == time.Saturday || wd == time.Sunday
	case Weekly:
		return s.DayOfWeek != nil && day.Weekday() == *s.DayOfWeek
	case Monthly:
		return s.DayOfMonth != nil && day.Day() == *s.DayOfMonth
	}
	return false
}

// Describe returns a human-readable description of the schedule.
func (s Schedule) Describe() string {
	switch s.Kind {
	case Daily:
		return fmt.Sprintf("Every day at %s", s.TimeOfDay)
	case Workdays:
		return fmt.Sprintf("Workdays at %s", s.TimeOfDay)
	case Weekends:
		return fmt.Sprintf("Weekends at %s", s.TimeOfDay)
	case Weekly:
		if s.DayOfWeek != nil {
			return fmt.Sprintf("Every %s at %s", s.DayOfWeek.String(), s.TimeOfDay)
		}
		return fmt.Sprintf("Weekly at %s", s.TimeOfDay)
	case Monthly:
		if s.DayOfMonth != nil {
			return fmt.Sprintf("Monthly on day %d at %s", *s.DayOfMonth, s.TimeOfDay)
		}
		return fmt.Sprintf("Monthly at %s", s.TimeOfDay)
	case Manual:
		return "Manual"
	}
	return ""
}
