// Package reaper enforces the trash retention window by hard-deleting cards
// that have been soft-deleted for too long.
package reaper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Trash is the part of the store the reaper needs.
type Trash interface {
	ExpiredTrash(ctx context.Context, cutoff int64) ([]string, error)
	PurgeExpired(ctx context.Context, id string, cutoff int64) (bool, error)
}

const (
	DefaultRetention = 10 * 24 * time.Hour
	DefaultInterval  = 24 * time.Hour
)

// Reaper sweeps the trash at start and then on a fixed interval.
type Reaper struct {
	trash     Trash
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	log       *zap.SugaredLogger
}

// Option configures a Reaper.
type Option func(*Reaper)

func WithRetention(d time.Duration) Option {
	return func(r *Reaper) {
		if d > 0 {
			r.retention = d
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Reaper) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Reaper) { r.now = now }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Reaper) { r.log = log }
}

// New creates a Reaper over trash.
func New(trash Trash, opts ...Option) *Reaper {
	r := &Reaper{
		trash:     trash,
		retention: DefaultRetention,
		interval:  DefaultInterval,
		now:       time.Now,
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sweeps immediately, then every interval, until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
			r.log.Errorw("trash sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep purges every card whose deletedAt is older than the retention
// window and returns how many were removed. Each delete re-checks deletedAt,
// so a card restored after the scan is kept.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.retention).UnixMilli()

	ids, err := r.trash.ExpiredTrash(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return purged, ctx.Err()
		}
		ok, err := r.trash.PurgeExpired(ctx, id, cutoff)
		if err != nil {
			return purged, err
		}
		if ok {
			purged++
		} else {
			r.log.Debugw("trash entry changed before purge, skipped", "card_id", id)
		}
	}

	if purged > 0 {
		r.log.Infow("trash sweep purged cards", "count", purged)
	}
	return purged, nil
}
