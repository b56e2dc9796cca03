package service

import (
	"log/slog"
	"sort"
	"sync"

	"betstream/internal/domain"

	"github.com/shopspring/decimal"
)

// MarketService is the read side of the cache: it holds detached
// market summaries published by the sequencer, safe for concurrent
// readers (UI, monitoring) while the hotpath keeps mutating the caches.
type MarketService struct {
	mu        sync.RWMutex
	summaries map[string]domain.MarketSummary

	// Warn once per publish when a runner's liability crosses this.
	liabilityAlert decimal.Decimal
}

// NewMarketService creates an empty service. A zero liabilityAlert
// disables the alert.
func NewMarketService(liabilityAlert decimal.Decimal) *MarketService {
	return &MarketService{
		summaries:      make(map[string]domain.MarketSummary),
		liabilityAlert: liabilityAlert,
	}
}

// Publish stores a fresh snapshot of the given cache. It is invoked
// from the sequencer's update callback, on the hotpath goroutine, which
// is the only place a live cache may be read.
func (s *MarketService) Publish(cache *domain.MarketCache) {
	summary := cache.Summary()

	if s.liabilityAlert.IsPositive() {
		for _, r := range summary.Runners {
			if r.Liability.GreaterThan(s.liabilityAlert) {
				slog.Warn("Liability above alert threshold",
					slog.String("market", summary.MarketID),
					slog.Int64("selection", r.SelectionID),
					slog.String("liability", r.Liability.String()),
				)
			}
		}
	}

	s.mu.Lock()
	s.summaries[summary.MarketID] = summary
	s.mu.Unlock()
}

// GetSummary returns the latest published summary for a market id.
func (s *MarketService) GetSummary(marketID string) (domain.MarketSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[marketID]
	return summary, ok
}

// GetAllSummaries returns every published summary sorted by market id.
func (s *MarketService) GetAllSummaries() []domain.MarketSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.MarketSummary, 0, len(s.summaries))
	for _, summary := range s.summaries {
		result = append(result, summary)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].MarketID < result[j].MarketID
	})

	return result
}
