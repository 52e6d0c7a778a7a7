// Package cache provides an optional Redis-backed cache for the read-only
// catalog listings. Booking state is never cached: seat grids and tickets
// always come from the database so the exclusivity invariant stays
// observable immediately after every commit.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-ticket-server/internal/repository"
)

const (
	moviesKey       = "catalog:movies"
	showtimesKeyFmt = "catalog:showtimes:%d"
)

// Catalog caches movie and showtime listings. A nil *Catalog (or one built
// from a nil Redis client) is valid and disables caching entirely, so
// callers never branch on availability.
type Catalog struct {
	rdb *redis.Client
	ttl time.Duration
}

// New builds a Catalog cache. Returns nil when rdb is nil.
func New(rdb *redis.Client, ttl time.Duration) *Catalog {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Catalog{rdb: rdb, ttl: ttl}
}

// GetMovies returns the cached movie list and whether it was present.
func (c *Catalog) GetMovies(ctx context.Context) ([]repository.Movie, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, moviesKey).Bytes()
	if err != nil {
		return nil, false
	}
	var movies []repository.Movie
	if err := json.Unmarshal(raw, &movies); err != nil {
		return nil, false
	}
	return movies, true
}

// SetMovies stores the movie list. Failures are ignored; the cache is
// best-effort.
func (c *Catalog) SetMovies(ctx context.Context, movies []repository.Movie) {
	if c == nil {
		return
	}
	if raw, err := json.Marshal(movies); err == nil {
		_ = c.rdb.Set(ctx, moviesKey, raw, c.ttl).Err()
	}
}

// InvalidateMovies drops the movie list after an admin mutation.
func (c *Catalog) InvalidateMovies(ctx context.Context) {
	if c == nil {
		return
	}
	_ = c.rdb.Del(ctx, moviesKey).Err()
}

// GetShowtimes returns the cached showtime list for a movie.
func (c *Catalog) GetShowtimes(ctx context.Context, movieID uint64) ([]repository.Showtime, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(showtimesKeyFmt, movieID)).Bytes()
	if err != nil {
		return nil, false
	}
	var showtimes []repository.Showtime
	if err := json.Unmarshal(raw, &showtimes); err != nil {
		return nil, false
	}
	return showtimes, true
}

// SetShowtimes stores the showtime list for a movie.
func (c *Catalog) SetShowtimes(ctx context.Context, movieID uint64, showtimes []repository.Showtime) {
	if c == nil {
		return
	}
	if raw, err := json.Marshal(showtimes); err == nil {
		_ = c.rdb.Set(ctx, fmt.Sprintf(showtimesKeyFmt, movieID), raw, c.ttl).Err()
	}
}

// InvalidateShowtimes drops the showtime list of one movie.
func (c *Catalog) InvalidateShowtimes(ctx context.Context, movieID uint64) {
	if c == nil {
		return
	}
	_ = c.rdb.Del(ctx, fmt.Sprintf(showtimesKeyFmt, movieID)).Err()
}
