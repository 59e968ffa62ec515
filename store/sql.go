package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/etnz/costbasis"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

func init() {
	// modernc registers itself as "sqlite", unknown to sqlx.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// atLayout is a fixed width UTC layout, so that the "at" column sorts lexically.
const atLayout = "2006-01-02T15:04:05.000000000Z"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS holding_events (
		id      TEXT PRIMARY KEY,
		asset   TEXT NOT NULL,
		at      TEXT NOT NULL,
		seq     BIGINT NOT NULL,
		kind    TEXT NOT NULL,
		payload TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS holding_events_asset ON holding_events (asset, at, seq)`,
}

const (
	insertEvent  = `INSERT INTO holding_events (id, asset, at, seq, kind, payload) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`
	selectEvents = `SELECT payload FROM holding_events WHERE asset = ? ORDER BY at, seq`
	selectAssets = `SELECT DISTINCT asset FROM holding_events ORDER BY asset`
)

// SQLStore is an EventStore backed by a SQL database.
//
// Events are stored as their JSON encoding, next to the columns needed to
// select and order them.
type SQLStore struct {
	db *sqlx.DB
}

// Open connects to the database, checks the connection and creates the schema if needed.
//
// driver is either "postgres" or "sqlite".
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// sqlite serializes writers anyway, and ":memory:" is per connection.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New returns a SQLStore using db, creating the schema if needed.
func New(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	s := &SQLStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate holding_events: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) Append(ctx context.Context, e costbasis.Event) error {
	if err := checkEvent(e); err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", e.Meta().ID, err)
	}
	b := e.Meta()
	res, err := s.db.ExecContext(ctx, s.db.Rebind(insertEvent),
		b.ID.String(),
		b.Asset.String(),
		b.At.UTC().Format(atLayout),
		b.Seq,
		string(e.What()),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", b.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", b.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, b.ID)
	}
	return nil
}

func (s *SQLStore) Events(ctx context.Context, asset costbasis.AssetID) ([]costbasis.Event, error) {
	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads, s.db.Rebind(selectEvents), asset.String()); err != nil {
		return nil, fmt.Errorf("failed to fetch events for %s: %w", asset, err)
	}
	events := make([]costbasis.Event, 0, len(payloads))
	for i, payload := range payloads {
		e, err := costbasis.DecodeEvent([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to decode event #%d of %s: %w", i, asset, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *SQLStore) Assets(ctx context.Context) ([]costbasis.AssetID, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, selectAssets); err != nil {
		return nil, fmt.Errorf("failed to fetch assets: %w", err)
	}
	assets := make([]costbasis.AssetID, len(names))
	for i, name := range names {
		assets[i] = costbasis.AssetID(name)
	}
	return assets, nil
}
