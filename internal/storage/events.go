package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/siteglance/ingest-gw/internal/event"
)

// Delivery is the audit record for one accepted webhook delivery.
type Delivery struct {
	ID         string
	ReceivedAt time.Time
	Received   int // raw records extracted from the body
	Processed  int // records that survived normalization
}

// EventStore persists canonical events keyed by event id.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// IngestBatch writes the delivery audit row and upserts every event in a
// single transaction. The write is all-or-nothing: readers never observe a
// half-applied delivery, and a redelivered event id overwrites all non-key
// columns so the latest version of an event wins.
func (s *EventStore) IngestBatch(ctx context.Context, d Delivery, events []event.Event) error {
	if d.ID == "" {
		return fmt.Errorf("delivery id is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO deliveries(id, received_at, received, processed)
VALUES(?, ?, ?, ?);
`, d.ID, d.ReceivedAt.UTC().Format(time.RFC3339Nano), d.Received, d.Processed)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, ev := range events {
		if ev.ID == "" {
			return fmt.Errorf("event with empty id in batch")
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO events(
  event_id, occurred_at, session_id, visit_id, url, path,
  country, city, region, referrer, user_agent, client_ip, ingested_at
)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(event_id) DO UPDATE SET
  occurred_at = excluded.occurred_at,
  session_id  = excluded.session_id,
  visit_id    = excluded.visit_id,
  url         = excluded.url,
  path        = excluded.path,
  country     = excluded.country,
  city        = excluded.city,
  region      = excluded.region,
  referrer    = excluded.referrer,
  user_agent  = excluded.user_agent,
  client_ip   = excluded.client_ip,
  ingested_at = excluded.ingested_at;
`,
			ev.ID, ev.OccurredAt.UTC().Format(time.RFC3339Nano),
			nullable(ev.SessionID), nullable(ev.VisitID),
			nullable(ev.URL), nullable(ev.Path),
			nullable(ev.Country), nullable(ev.City), nullable(ev.Region),
			nullable(ev.Referrer), nullable(ev.UserAgent), nullable(ev.ClientIP),
			now,
		)
		if err != nil {
			return fmt.Errorf("upsert event %q: %w", ev.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// EventByID returns the persisted event, or (nil, nil) if absent.
func (s *EventStore) EventByID(ctx context.Context, id string) (*event.Event, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT event_id, occurred_at, session_id, visit_id, url, path,
       country, city, region, referrer, user_agent, client_ip
FROM events WHERE event_id = ?;
`, id)

	var (
		ev          event.Event
		occurredAtS string
		optional    [10]sql.NullString
	)
	err := row.Scan(&ev.ID, &occurredAtS,
		&optional[0], &optional[1], &optional[2], &optional[3], &optional[4],
		&optional[5], &optional[6], &optional[7], &optional[8], &optional[9])
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}

	if t, err := time.Parse(time.RFC3339Nano, occurredAtS); err == nil {
		ev.OccurredAt = t
	}
	ev.SessionID = optional[0].String
	ev.VisitID = optional[1].String
	ev.URL = optional[2].String
	ev.Path = optional[3].String
	ev.Country = optional[4].String
	ev.City = optional[5].String
	ev.Region = optional[6].String
	ev.Referrer = optional[7].String
	ev.UserAgent = optional[8].String
	ev.ClientIP = optional[9].String
	return &ev, nil
}

// CountEvents returns the number of persisted events.
func (s *EventStore) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events;").Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// CountDeliveries returns the number of recorded deliveries.
func (s *EventStore) CountDeliveries(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM deliveries;").Scan(&n); err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}
	return n, nil
}

// nullable maps empty strings to NULL so absent attributes stay absent.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
