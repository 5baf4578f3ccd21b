package store

import (
	"testing"
	"time"
)

func TestSettingsTimeCheckpoint(t *testing.T) {
	db := setupTestDB(t)
	settings := NewSettingsStore(db)

	// Unset key: zero value, not an error.
	_, ok, err := settings.GetTime(KeySchedulerWindowEnd)
	if err != nil {
		t.Fatalf("get unset: %v", err)
	}
	if ok {
		t.Fatal("unset key reported as present")
	}

	at := time.Date(2026, 1, 5, 6, 30, 0, 0, time.UTC)
	if err := settings.SetTime(KeySchedulerWindowEnd, at); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := settings.GetTime(KeySchedulerWindowEnd)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || !got.Equal(at) {
		t.Fatalf("got %v (%v), want %v", got, ok, at)
	}

	// Overwrite moves the checkpoint forward.
	later := at.Add(time.Minute)
	if err := settings.SetTime(KeySchedulerWindowEnd, later); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _, err = settings.GetTime(KeySchedulerWindowEnd)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Equal(later) {
		t.Fatalf("got %v, want %v", got, later)
	}
}
