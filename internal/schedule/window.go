package schedule

import "time"

// ShouldTriggerInWindow reports whether the schedule fires inside the
// half-open UTC window [from, to) when interpreted in loc, and returns the
// trigger instant in UTC.
//
// The wall-clock TimeOfDay is resolved through the zone's actual offset on
// each candidate day, so a 09:00 schedule fires at local 09:00 on both
// sides of a DST transition. Callers must evaluate a schedule over
// contiguous, non-overlapping windows; each trigger instant then lands in
// exactly one window.
func (s Schedule) ShouldTriggerInWindow(from, to time.Time, loc *time.Location) (time.Time, bool) {
	if s.Kind == Manual || !from.Before(to) {
		return time.Time{}, false
	}

	// Walk every local calendar day the window touches.
	localFrom := from.In(loc)
	localTo := to.In(loc)
	day := time.Date(localFrom.Year(), localFrom.Month(), localFrom.Day(), 0, 0, 0, 0, loc)
	lastDay := time.Date(localTo.Year(), localTo.Month(), localTo.Day(), 0, 0, 0, 0, loc)

	for !day.After(lastDay) {
		if s.matchesDay(day) {
			// time.Date normalizes instants that fall into a DST gap,
			// so the trigger shifts with the clock jump instead of
			// disappearing.
			candidate := time.Date(day.Year(), day.Month(), day.Day(),
				s.TimeOfDay.Hour, s.TimeOfDay.Minute, 0, 0, loc)
			utc := candidate.UTC()
			if !utc.Before(from) && utc.Before(to) {
				return utc, true
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}

// CrossedLocalTimeBetween reports whether the local hourOfDay boundary in
// loc falls inside (prev, cur]. It is the primitive behind
// once-per-local-day notifications.
//
// A nil prev (first run, no baseline) never crosses; the caller is
// expected to persist cur as the next baseline.
func CrossedLocalTimeBetween(prev *time.Time, cur time.Time, loc *time.Location, hourOfDay int) bool {
	if prev == nil || !prev.Before(cur) {
		return false
	}

	localPrev := prev.In(loc)
	localCur := cur.In(loc)

	day := time.Date(localPrev.Year(), localPrev.Month(), localPrev.Day(), 0, 0, 0, 0, loc)
	lastDay := time.Date(localCur.Year(), localCur.Month(), localCur.Day(), 0, 0, 0, 0, loc)

	for !day.After(lastDay) {
		boundary := time.Date(day.Year(), day.Month(), day.Day(), hourOfDay, 0, 0, 0, loc)
		if boundary.After(*prev) && !boundary.After(cur) {
			return true
		}
		day = day.AddDate(0, 0, 1)
	}
	return false
}
