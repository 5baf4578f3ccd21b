package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

// EventStore is the outbox: state transitions append rows here, the
// dispatcher drains them.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// Append records a domain event. The id is generated here so retried
// appends never collide with delivered events.
func (s *EventStore) Append(familyID int64, entity, action string, entityID int64, payload map[string]any) (*model.Event, error) {
	data := []byte("{}")
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal event payload: %w", err)
		}
	}

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO events (id, family_id, entity, action, entity_id, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		id, familyID, entity, action, entityID, string(data),
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id string) (*model.Event, error) {
	row := s.db.QueryRow(
		`SELECT id, family_id, entity, action, entity_id, payload, created_at, dispatched_at FROM events WHERE id = ?`,
		id,
	)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	var payload string
	var dispatchedAt sql.NullTime

	err := scanner.Scan(&e.ID, &e.FamilyID, &e.Entity, &e.Action, &e.EntityID, &payload, &e.CreatedAt, &dispatchedAt)
	if err != nil {
		return nil, err
	}

	if payload != "" && payload != "{}" {
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal event payload: %w", err)
		}
	}
	if dispatchedAt.Valid {
		at := dispatchedAt.Time
		e.DispatchedAt = &at
	}
	return &e, nil
}

// ListUndispatched returns up to limit pending events in append order.
func (s *EventStore) ListUndispatched(limit int) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT id, family_id, entity, action, entity_id, payload, created_at, dispatched_at
		 FROM events WHERE dispatched_at IS NULL ORDER BY created_at, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list undispatched events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) MarkDispatched(id string, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE events SET dispatched_at = ? WHERE id = ?`, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark event dispatched: %w", err)
	}
	return nil
}
