package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RunnerSummary is a point-in-time read model of one runner cache.
type RunnerSummary struct {
	SelectionID      int64           `json:"selection_id"`
	LastTradedPrice  float64         `json:"ltp"`
	TotalMatched     float64         `json:"total_matched"`
	BestBackPrice    float64         `json:"best_back_price"`
	BestBackSize     float64         `json:"best_back_size"`
	BestLayPrice     float64         `json:"best_lay_price"`
	BestLaySize      float64         `json:"best_lay_size"`
	TradedVwap       float64         `json:"traded_vwap"`
	MostTradedPrice  float64         `json:"most_traded_price"`
	TradedRate10s    float64         `json:"traded_rate_10s"`
	AdjustmentFactor float64         `json:"adjustment_factor"`
	Liability        decimal.Decimal `json:"liability"`
	IfWin            decimal.Decimal `json:"if_win"`
	IfLose           decimal.Decimal `json:"if_lose"`
}

// MarketSummary is a point-in-time read model of one market cache,
// safe to hand out beyond the hotpath goroutine.
type MarketSummary struct {
	MarketID      string          `json:"market_id"`
	Status        MarketStatus    `json:"status"`
	InPlay        bool            `json:"in_play"`
	Version       int64           `json:"version"`
	MarketTime    time.Time       `json:"market_time"`
	TotalMatched  float64         `json:"total_matched"`
	LastPublished int64           `json:"last_published"`
	Runners       []RunnerSummary `json:"runners"`
}

// Summary builds a detached snapshot of the cache. Must be called from
// the goroutine that owns the cache.
func (m *MarketCache) Summary() MarketSummary {
	s := MarketSummary{
		MarketID:      m.marketID,
		TotalMatched:  m.totalMatched,
		LastPublished: m.lastPublished,
		Runners:       make([]RunnerSummary, 0, len(m.runners)),
	}
	if m.definition != nil {
		s.Status = m.definition.Status
		s.InPlay = m.definition.InPlay
		s.Version = m.definition.Version
		s.MarketTime = m.definition.MarketTime
	}
	for _, r := range m.runners {
		ltp, _ := r.LastTradedPrice()
		s.Runners = append(s.Runners, RunnerSummary{
			SelectionID:      r.SelectionID(),
			LastTradedPrice:  ltp,
			TotalMatched:     r.TotalMatched(),
			BestBackPrice:    r.BestAvailableToBack.Price(1),
			BestBackSize:     r.BestAvailableToBack.Size(1),
			BestLayPrice:     r.BestAvailableToLay.Price(1),
			BestLaySize:      r.BestAvailableToLay.Size(1),
			TradedVwap:       r.Traded.Vwap(),
			MostTradedPrice:  r.Traded.MostTradedPrice(),
			TradedRate10s:    r.Traded.Win10.RatePerSecond(),
			AdjustmentFactor: r.AdjustmentFactor(),
			Liability:        r.UnmatchedLiability(),
			IfWin:            r.IfWin(),
			IfLose:           r.IfLose(),
		})
	}
	sort.Slice(s.Runners, func(i, j int) bool {
		return s.Runners[i].SelectionID < s.Runners[j].SelectionID
	})
	return s
}
