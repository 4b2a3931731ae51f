package source

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tgienger/pdash/internal/db"
	"github.com/tgienger/pdash/internal/models"
)

// Fetcher loads snapshots from a primary source with a timeout, keeps the
// cache current and falls back to it when the source fails.
type Fetcher struct {
	primary Source
	cache   *db.DB // optional
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewFetcher creates a fetcher. cache may be nil.
func NewFetcher(primary Source, cache *db.DB, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		primary: primary,
		cache:   cache,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Fetch always returns a usable snapshot. When the primary source fails the
// error comes back with a Stale snapshot: the cached one if present, else an
// empty one.
func (f *Fetcher) Fetch(ctx context.Context) (models.Snapshot, error) {
	refreshID := uuid.NewString()
	logger := f.logger.With("refresh_id", refreshID, "source", f.primary.Name())

	fetchCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	snap, err := f.primary.Fetch(fetchCtx)
	if err == nil {
		if snap.FetchedAt.IsZero() {
			snap.FetchedAt = f.now().UTC()
		}
		if snap.Source == "" {
			snap.Source = f.primary.Name()
		}
		logger.Info("snapshot fetched", "projects", len(snap.Projects), "tasks", len(snap.Tasks))

		if f.cache != nil {
			if cacheErr := f.cache.SaveSnapshot(ctx, snap, refreshID); cacheErr != nil {
				logger.Warn("failed to cache snapshot", "error", cacheErr)
			}
		}
		return snap, nil
	}

	logger.Warn("fetch failed", "error", err)

	cached, cacheErr := f.cached(ctx)
	if cacheErr != nil {
		if !errors.Is(cacheErr, ErrNoSnapshot) {
			logger.Warn("failed to read cached snapshot", "error", cacheErr)
		}
		return models.Snapshot{Source: f.primary.Name(), FetchedAt: f.now().UTC(), Stale: true}, err
	}

	logger.Info("serving cached snapshot", "fetched_at", cached.FetchedAt)
	cached.Stale = true
	return cached, err
}

func (f *Fetcher) cached(ctx context.Context) (models.Snapshot, error) {
	if f.cache == nil {
		return models.Snapshot{}, ErrNoSnapshot
	}
	return f.cache.LoadSnapshot(ctx)
}
