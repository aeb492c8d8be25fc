package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ats-history/internal/ats"
)

const (
	// DefaultTTL bounds how long a cached report may outlive a sync
	DefaultTTL = 10 * time.Minute

	keyPrefix     = "ats:report"
	generationKey = "ats:report:generation"
)

// Reporter builds team reports
type Reporter interface {
	Report(ctx context.Context, team string, seasons []int) (ats.Metrics, error)
}

// Reports caches finished reports in Redis in front of another Reporter.
// Redis failures fall through to the wrapped reporter.
type Reports struct {
	rdb  *redis.Client
	next Reporter
	ttl  time.Duration
}

// NewReports wraps next. A non-positive ttl uses DefaultTTL.
func NewReports(rdb *redis.Client, next Reporter, ttl time.Duration) *Reports {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Reports{rdb: rdb, next: next, ttl: ttl}
}

// Report returns a cached report when one exists for the current snapshot generation
func (c *Reports) Report(ctx context.Context, team string, seasons []int) (ats.Metrics, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		slog.Warn("Report cache unavailable", "err", err)
		return c.next.Report(ctx, team, seasons)
	}
	key := Key(gen, team, seasons)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var m ats.Metrics
		if err := json.Unmarshal(data, &m); err == nil {
			return m, nil
		}
		slog.Warn("Discarding corrupt cached report", "key", key)
	case !errors.Is(err, redis.Nil):
		slog.Warn("Report cache read failed", "key", key, "err", err)
	}

	m, err := c.next.Report(ctx, team, seasons)
	if err != nil {
		return m, err
	}

	// Partial reports are retried on the next request
	if len(m.Metadata.SeasonsMissing) > 0 {
		return m, nil
	}
	if data, err := json.Marshal(m); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Warn("Report cache write failed", "key", key, "err", err)
		}
	}
	return m, nil
}

// Invalidate retires every cached report by bumping the generation
func (c *Reports) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("invalidating report cache: %w", err)
	}
	return nil
}

func (c *Reports) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Key is the cache key for a report. Season order and duplicates do not matter.
func Key(gen int64, team string, seasons []int) string {
	sorted := append([]int(nil), seasons...)
	sort.Ints(sorted)

	parts := make([]string, 0, len(sorted))
	for i, s := range sorted {
		if i > 0 && s == sorted[i-1] {
			continue
		}
		parts = append(parts, strconv.Itoa(s))
	}

	team = strings.TrimSpace(team)
	return fmt.Sprintf("%s:%d:%s:%s", keyPrefix, gen, team, strings.Join(parts, ","))
}
