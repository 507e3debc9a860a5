// Package store is the process-wide handle on the card and project database.
// It wraps the SQL layer with one transaction per entity write and publishes
// an Event after each commit.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tabscribe/tabscribe/internal/config"
	"github.com/tabscribe/tabscribe/internal/db"
	"github.com/tabscribe/tabscribe/internal/errors"
)

// Store is the explicit EntityStore handle. Open it once at process start,
// pass it to every component that needs it, and Close it on shutdown.
type Store struct {
	db     *sql.DB
	log    *zap.SugaredLogger
	now    func() time.Time
	newID  func() string
	events *broker
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = log }
}

// WithClock overrides the wall clock used for deletedAt and createdAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithProjectIDs overrides the project id generator.
func WithProjectIDs(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Open initializes the database under baseDir and returns a Store on it.
func Open(baseDir string, cfg *config.Config, opts ...Option) (*Store, error) {
	database, err := db.Init(baseDir)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	db.ConfigurePool(database, cfg)
	return New(database, opts...), nil
}

// New wraps an already-initialized database.
func New(database *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:    database,
		log:   zap.NewNop().Sugar(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = newBroker(s.log)
	return s
}

// Close drops every listener and closes the database.
func (s *Store) Close() error {
	s.events.close()
	return s.db.Close()
}

// DB exposes the underlying database for components that share the file.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Logger returns the store's logger.
func (s *Store) Logger() *zap.SugaredLogger {
	return s.log
}

// NowMillis returns the store clock in Unix milliseconds.
func (s *Store) NowMillis() int64 {
	return s.now().UnixMilli()
}

func (s *Store) publish(t EventType, cardID, projectID string) {
	s.events.publish(Event{Type: t, CardID: cardID, ProjectID: projectID, At: s.NowMillis()})
}

// withTx runs fn in a write transaction and maps driver errors to INTERNAL.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := db.WithTx(ctx, s.db, fn); err != nil {
		return internal(err)
	}
	return nil
}

func internal(err error) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.NewInternal(err)
}
