package schedule

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestWeeklyTriggerInWindow(t *testing.T) {
	// UTC+3, no DST. Monday 09:00 local = 06:00Z.
	moscow := mustLoad(t, "Europe/Moscow")
	s := Schedule{Kind: Weekly, TimeOfDay: TimeOfDay{Hour: 9}, DayOfWeek: weekdayPtr(time.Monday)}

	// 2026-01-05 is a Monday. Window = Mon 08:30-09:30 local.
	from := time.Date(2026, 1, 5, 5, 30, 0, 0, time.UTC)
	to := time.Date(2026, 1, 5, 6, 30, 0, 0, time.UTC)

	got, ok := s.ShouldTriggerInWindow(from, to, moscow)
	if !ok {
		t.Fatal("expected trigger in window")
	}
	want := time.Date(2026, 1, 5, 6, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("trigger = %v, want %v", got, want)
	}

	// Same schedule on a Tuesday window: no trigger.
	if _, ok := s.ShouldTriggerInWindow(from.AddDate(0, 0, 1), to.AddDate(0, 0, 1), moscow); ok {
		t.Error("weekly Monday schedule triggered on Tuesday")
	}
}

func TestWindowBoundariesHalfOpen(t *testing.T) {
	moscow := mustLoad(t, "Europe/Moscow")
	s := Schedule{Kind: Daily, TimeOfDay: TimeOfDay{Hour: 9}}
	trigger := time.Date(2026, 1, 5, 6, 0, 0, 0, time.UTC) // 09:00 local

	// Trigger exactly at window start is included.
	if _, ok := s.ShouldTriggerInWindow(trigger, trigger.Add(time.Hour), moscow); !ok {
		t.Error("trigger at window start should be included")
	}

	// Trigger exactly at window end is excluded.
	if _, ok := s.ShouldTriggerInWindow(trigger.Add(-time.Hour), trigger, moscow); ok {
		t.Error("trigger at window end should be excluded")
	}
}

func TestWorkdaysAndWeekends(t *testing.T) {
	utc := time.UTC
	workdays := Schedule{Kind: Workdays, TimeOfDay: TimeOfDay{Hour: 12}}
	weekends := Schedule{Kind: Weekends, TimeOfDay: TimeOfDay{Hour: 12}}

	// 2026-01-09 Friday, 2026-01-10 Saturday.
	friday := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	saturday := friday.AddDate(0, 0, 1)

	if _, ok := workdays.ShouldTriggerInWindow(friday, saturday, utc); !ok {
		t.Error("workdays schedule should trigger on Friday")
	}
	if _, ok := workdays.ShouldTriggerInWindow(saturday, saturday.AddDate(0, 0, 1), utc); ok {
		t.Error("workdays schedule should not trigger on Saturday")
	}
	if _, ok := weekends.ShouldTriggerInWindow(saturday, saturday.AddDate(0, 0, 1), utc); !ok {
		t.Error("weekends schedule should trigger on Saturday")
	}
	if _, ok := weekends.ShouldTriggerInWindow(friday, saturday, utc); ok {
		t.Error("weekends schedule should not trigger on Friday")
	}
}

func TestMonthlyNoClamping(t *testing.T) {
	moscow := mustLoad(t, "Europe/Moscow")
	s := Schedule{Kind: Monthly, TimeOfDay: TimeOfDay{Hour: 10}, DayOfMonth: intPtr(31)}

	// Window covering all of local April 30: April has 30 days, no trigger.
	from := time.Date(2026, 4, 29, 21, 0, 0, 0, time.UTC) // Apr 30 00:00 local
	to := time.Date(2026, 4, 30, 21, 0, 0, 0, time.UTC)   // May 1 00:00 local
	if _, ok := s.ShouldTriggerInWindow(from, to, moscow); ok {
		t.Error("day-31 schedule must not trigger in April")
	}

	// Local May 31 10:00 = 07:00Z.
	from = time.Date(2026, 5, 30, 21, 0, 0, 0, time.UTC)
	to = time.Date(2026, 5, 31, 21, 0, 0, 0, time.UTC)
	got, ok := s.ShouldTriggerInWindow(from, to, moscow)
	if !ok {
		t.Fatal("day-31 schedule should trigger on May 31")
	}
	want := time.Date(2026, 5, 31, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("trigger = %v, want %v", got, want)
	}
}

func TestManualNeverTriggers(t *testing.T) {
	s := Schedule{Kind: Manual}
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, ok := s.ShouldTriggerInWindow(from, from.AddDate(1, 0, 0), time.UTC); ok {
		t.Error("manual schedule must never auto-trigger")
	}
}

func TestDailyTriggerAcrossDST(t *testing.T) {
	// Europe/Berlin springs forward 2026-03-29 02:00 -> 03:00.
	berlin := mustLoad(t, "Europe/Berlin")
	s := Schedule{Kind: Daily, TimeOfDay: TimeOfDay{Hour: 9}}

	days := []struct {
		day      time.Time
		wantHour int // expected UTC hour of the 09:00 local trigger
	}{
		{time.Date(2026, 3, 28, 0, 0, 0, 0, time.UTC), 8}, // CET, UTC+1
		{time.Date(2026, 3, 29, 0, 0, 0, 0, time.UTC), 7}, // CEST, UTC+2
	}

	for _, tt := range days {
		got, ok := s.ShouldTriggerInWindow(tt.day, tt.day.AddDate(0, 0, 1), berlin)
		if !ok {
			t.Fatalf("no trigger on %v", tt.day)
		}
		if got.Hour() != tt.wantHour {
			t.Errorf("%v: trigger at %02d:00Z, want %02d:00Z", tt.day, got.Hour(), tt.wantHour)
		}
		if local := got.In(berlin); local.Hour() != 9 || local.Minute() != 0 {
			t.Errorf("%v: local trigger %02d:%02d, want 09:00", tt.day, local.Hour(), local.Minute())
		}
	}
}

func TestDSTGapNormalizes(t *testing.T) {
	// 02:30 local does not exist on 2026-03-29 in Berlin; the normalized
	// instant is used, not dropped.
	berlin := mustLoad(t, "Europe/Berlin")
	s := Schedule{Kind: Daily, TimeOfDay: TimeOfDay{Hour: 2, Minute: 30}}

	day := time.Date(2026, 3, 28, 23, 0, 0, 0, time.UTC)
	got, ok := s.ShouldTriggerInWindow(day, day.AddDate(0, 0, 1), berlin)
	if !ok {
		t.Fatal("trigger in DST gap must not be dropped")
	}
	want := time.Date(2026, 3, 29, 1, 30, 0, 0, time.UTC) // normalized to 03:30 CEST
	if !got.Equal(want) {
		t.Errorf("trigger = %v, want %v", got, want)
	}
}

// Exactly-once: splitting a period into contiguous half-open windows
// yields the same trigger count as evaluating the whole period day by day.
func TestExactlyOnceAcrossContiguousWindows(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	s := Schedule{Kind: Daily, TimeOfDay: TimeOfDay{Hour: 9}}

	// 60 days spanning the 2026-03-29 spring-forward transition.
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 60)

	for _, step := range []time.Duration{time.Hour, 6 * time.Hour, 37 * time.Minute} {
		count := 0
		seen := map[time.Time]bool{}
		for from := start; from.Before(end); from = from.Add(step) {
			to := from.Add(step)
			if to.After(end) {
				to = end
			}
			if at, ok := s.ShouldTriggerInWindow(from, to, berlin); ok {
				if seen[at] {
					t.Fatalf("step %v: trigger %v returned twice", step, at)
				}
				seen[at] = true
				count++
			}
		}
		if count != 60 {
			t.Errorf("step %v: %d triggers over 60 days, want 60", step, count)
		}
	}
}

func TestCrossedLocalTimeBetween(t *testing.T) {
	moscow := mustLoad(t, "Europe/Moscow")

	// 19:00 local = 16:00Z.
	boundary := time.Date(2026, 1, 5, 16, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		prev *time.Time
		cur  time.Time
		want bool
	}{
		{"nil prev never crosses", nil, boundary.Add(time.Hour), false},
		{"straddles boundary", timePtr(boundary.Add(-time.Minute)), boundary.Add(time.Minute), true},
		{"boundary equals cur", timePtr(boundary.Add(-time.Minute)), boundary, true},
		{"boundary equals prev", timePtr(boundary), boundary.Add(time.Minute), false},
		{"both before boundary", timePtr(boundary.Add(-2 * time.Hour)), boundary.Add(-time.Hour), false},
		{"both after boundary", timePtr(boundary.Add(time.Hour)), boundary.Add(2 * time.Hour), false},
		{"multi-day gap", timePtr(boundary.Add(-48 * time.Hour)), boundary.Add(time.Minute), true},
		{"prev not before cur", timePtr(boundary.Add(time.Hour)), boundary, false},
	}

	for _, tt := range tests {
		if got := CrossedLocalTimeBetween(tt.prev, tt.cur, moscow, 19); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCrossedLocalTimeAcrossDST(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")

	// 09:00 local on 2026-03-29 is 07:00Z (CEST). A window that covers
	// 07:00Z-08:00Z crosses it; the pre-DST 08:00Z instant does not count.
	prev := time.Date(2026, 3, 29, 6, 30, 0, 0, time.UTC)
	cur := time.Date(2026, 3, 29, 7, 30, 0, 0, time.UTC)
	if !CrossedLocalTimeBetween(&prev, cur, berlin, 9) {
		t.Error("expected crossing of local 09:00 after spring-forward")
	}

	prev = time.Date(2026, 3, 29, 7, 30, 0, 0, time.UTC)
	cur = time.Date(2026, 3, 29, 8, 30, 0, 0, time.UTC)
	if CrossedLocalTimeBetween(&prev, cur, berlin, 9) {
		t.Error("local 09:00 already passed at 07:00Z; 08:00Z window must not cross")
	}
}

func TestValidTimezone(t *testing.T) {
	if !ValidTimezone("Europe/Moscow") {
		t.Error("Europe/Moscow should be valid")
	}
	if ValidTimezone("") {
		t.Error("empty timezone should be invalid")
	}
	if ValidTimezone("Mars/Olympus") {
		t.Error("Mars/Olympus should be invalid")
	}
}

func timePtr(t time.Time) *time.Time { return &t }
