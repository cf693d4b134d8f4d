package kpi

import (
	"log/slog"
	"sync"
	"time"

	"github.com/commandos-health/commandos/pkg/logger"
)

const DefaultStaleTime = 60 * time.Second

type Repository interface {
	ListByPeriod(period string) ([]*Record, error)
}

// Service serves KPI reads through an in-process cache. Entries older
// than staleTime are refetched; a refetch failure falls back to the
// stale copy when one exists.
type Service struct {
	repo      Repository
	staleTime time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	records   []*Record
	fetchedAt time.Time
}

func NewService(repo Repository, staleTime time.Duration) *Service {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{
		repo:      repo,
		staleTime: staleTime,
		logger:    lg,
		now:       time.Now,
		cache:     make(map[string]cacheEntry),
	}
}

func (s *Service) ListByPeriod(period string) ([]*Record, error) {
	s.mu.Lock()
	entry, cached := s.cache[period]
	s.mu.Unlock()

	if cached && s.now().Sub(entry.fetchedAt) < s.staleTime {
		return entry.records, nil
	}

	records, err := s.repo.ListByPeriod(period)
	if err != nil {
		if cached {
			s.logger.Warn("ListByPeriod: refresh failed, serving stale", "error", err, "period", period)
			return entry.records, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.cache[period] = cacheEntry{records: records, fetchedAt: s.now()}
	s.mu.Unlock()

	return records, nil
}

// Invalidate drops the cached copy for a period, forcing the next read
// to hit the repository. Used after data imports land.
func (s *Service) Invalidate(period string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if period == "" {
		s.cache = make(map[string]cacheEntry)
		return
	}
	delete(s.cache, period)
}
