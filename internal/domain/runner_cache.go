package domain

import "github.com/shopspring/decimal"

// RunnerCache is the live per-selection state inside a market: last
// traded price, total matched, the best-available ladders, the traded
// ladder with its activity windows, and the order-derived matched
// ladders and liability.
type RunnerCache struct {
	selectionID   int64
	lastPublished int64

	lastTraded    float64
	hasLastTraded bool
	totalMatched  float64

	adjustmentFactor   float64
	unmatchedLiability decimal.Decimal

	BestAvailableToBack *LevelLadder
	BestAvailableToLay  *LevelLadder
	Traded              *PriceSizeLadder
	MatchedBacks        *PriceSizeLadder
	MatchedLays         *PriceSizeLadder
}

// NewRunnerCache creates the cache for one selection id.
func NewRunnerCache(selectionID int64) *RunnerCache {
	return &RunnerCache{
		selectionID:         selectionID,
		unmatchedLiability:  decimal.Zero,
		BestAvailableToBack: NewLevelLadder(),
		BestAvailableToLay:  NewLevelLadder(),
		Traded:              NewPriceSizeLadder(),
		MatchedBacks:        NewPriceSizeLadder(),
		MatchedLays:         NewPriceSizeLadder(),
	}
}

// SelectionID returns the immutable selection id.
func (r *RunnerCache) SelectionID() int64 { return r.selectionID }

// OnRunnerChange applies one decoded runner change. Changes for a
// different selection id are ignored.
func (r *RunnerCache) OnRunnerChange(change *RunnerChange, lastPublished int64) {
	if change == nil || !change.HasSelectionID || change.SelectionID != r.selectionID {
		return
	}

	r.lastPublished = lastPublished

	// Absent values leave the last known value in place.
	if change.HasLastTraded {
		r.lastTraded = change.LastTraded
		r.hasLastTraded = true
	}
	if change.HasTotalMatched {
		r.totalMatched = change.TotalMatched
	}

	for _, lps := range change.Batb {
		r.BestAvailableToBack.ProcessLevel(lps)
	}
	for _, lps := range change.Batl {
		r.BestAvailableToLay.ProcessLevel(lps)
	}

	r.Traded.Update(change.Trd, lastPublished)
}

// OnOrderChange overwrites the matched ladders from the order stream
// and recomputes unmatched liability from scratch. Order deltas are not
// time-windowed, so the ladders are stamped at timestamp zero.
func (r *RunnerCache) OnOrderChange(change *OrderRunnerChange) {
	if change == nil || change.SelectionID != r.selectionID {
		return
	}

	r.MatchedBacks.Update(change.MatchedBacks, 0)
	r.MatchedLays.Update(change.MatchedLays, 0)

	total := decimal.Zero
	for _, o := range change.Unmatched {
		if !o.HasPrice || !o.HasSizeRemaining {
			continue
		}
		size := decimal.NewFromFloat(o.SizeRemaining)
		switch o.Side {
		case SideBack:
			total = total.Add(size.Round(2))
		case SideLay:
			price := decimal.NewFromFloat(o.Price)
			total = total.Add(price.Mul(size).Sub(size).Round(2))
		}
	}
	r.unmatchedLiability = total
}

// SetDefinition applies the adjustment factor from a runner definition.
// Definitions for a different selection id, or without an adjustment
// factor, are ignored.
func (r *RunnerCache) SetDefinition(def *RunnerDefinition) {
	if def == nil || def.SelectionID != r.selectionID || !def.HasAdjustmentFactor {
		return
	}
	r.adjustmentFactor = def.AdjustmentFactor
}

// LastTradedPrice returns the last traded price and whether one has
// been seen.
func (r *RunnerCache) LastTradedPrice() (float64, bool) {
	return r.lastTraded, r.hasLastTraded
}

// TotalMatched returns the last published total matched for this
// selection.
func (r *RunnerCache) TotalMatched() float64 { return r.totalMatched }

// AdjustmentFactor returns the runner's adjustment factor, zero until a
// definition carried one.
func (r *RunnerCache) AdjustmentFactor() float64 { return r.adjustmentFactor }

// LastPublished returns the publish time of the last change applied.
func (r *RunnerCache) LastPublished() int64 { return r.lastPublished }

// UnmatchedLiability returns the exposure of unmatched orders, as of
// the last order change.
func (r *RunnerCache) UnmatchedLiability() decimal.Decimal {
	return r.unmatchedLiability
}

// IfWin returns the net result if this selection wins:
// matched back returns minus matched lay returns, rounded to 2 dp.
func (r *RunnerCache) IfWin() decimal.Decimal {
	backs := decimal.NewFromFloat(r.MatchedBacks.TotalReturn())
	lays := decimal.NewFromFloat(r.MatchedLays.TotalReturn())
	return backs.Sub(lays).Round(2)
}

// IfLose returns the net result if this selection loses:
// matched lay size minus matched back size, rounded to 2 dp.
func (r *RunnerCache) IfLose() decimal.Decimal {
	lays := decimal.NewFromFloat(r.MatchedLays.TotalSize())
	backs := decimal.NewFromFloat(r.MatchedBacks.TotalSize())
	return lays.Sub(backs).Round(2)
}
