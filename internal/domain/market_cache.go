package domain

// MarketCache is the live state of one market: its definition, total
// amount matched, publish time and the runner caches keyed by selection
// id. Runner caches are created lazily on first sighting and only ever
// removed by an image replace.
//
// Mutation is single-threaded: a MarketCache must only be driven from
// the sequencer's hotpath goroutine.
type MarketCache struct {
	marketID      string
	definition    *MarketDefinition
	totalMatched  float64
	lastPublished int64
	runners       map[int64]*RunnerCache
}

// NewMarketCache creates the cache for one market id.
func NewMarketCache(marketID string) *MarketCache {
	return &MarketCache{
		marketID: marketID,
		runners:  make(map[int64]*RunnerCache),
	}
}

// OnMarketChange applies one decoded market change. Changes for a
// different market id are ignored; the same decoder may be shared
// across markets.
func (m *MarketCache) OnMarketChange(change *MarketChange, publishTime int64) {
	if change == nil || change.MarketID != m.marketID {
		return
	}

	m.lastPublished = publishTime

	// Image replace: the change is a full snapshot, discard everything.
	if change.Img {
		m.runners = make(map[int64]*RunnerCache)
		m.definition = nil
		m.totalMatched = 0
	}

	if change.Definition != nil {
		// The decoder reuses its definition scratch; keep an owned copy.
		m.definition = change.Definition.Clone()
		for i := range m.definition.Runners {
			def := &m.definition.Runners[i]
			m.runner(def.SelectionID).SetDefinition(def)
		}
	}

	// A zero or absent total never overwrites a known positive one;
	// this guards against spurious resets mid-stream.
	if change.HasTotalMatched && change.TotalMatched > 0 {
		m.totalMatched = change.TotalMatched
	}

	for i := range change.RunnerChanges {
		rc := &change.RunnerChanges[i]
		if !rc.HasSelectionID {
			continue
		}
		m.runner(rc.SelectionID).OnRunnerChange(rc, publishTime)
	}
}

// OnOrderChange routes an order-stream change to its runner cache.
func (m *MarketCache) OnOrderChange(change *OrderRunnerChange) {
	if change == nil {
		return
	}
	m.runner(change.SelectionID).OnOrderChange(change)
}

// runner returns the cache for a selection id, creating it on first
// sight.
func (m *MarketCache) runner(selectionID int64) *RunnerCache {
	r, ok := m.runners[selectionID]
	if !ok {
		r = NewRunnerCache(selectionID)
		m.runners[selectionID] = r
	}
	return r
}

// MarketID returns the immutable market id.
func (m *MarketCache) MarketID() string { return m.marketID }

// Definition returns the current market definition, nil until one has
// been received.
func (m *MarketCache) Definition() *MarketDefinition { return m.definition }

// TotalMatched returns the last known positive total amount matched.
func (m *MarketCache) TotalMatched() float64 { return m.totalMatched }

// LastPublished returns the publish time of the last change applied.
func (m *MarketCache) LastPublished() int64 { return m.lastPublished }

// Runner returns the cache for selectionID, or nil if the selection has
// never been seen.
func (m *MarketCache) Runner(selectionID int64) *RunnerCache {
	return m.runners[selectionID]
}

// RunnerCount returns the number of selections seen so far.
func (m *MarketCache) RunnerCount() int { return len(m.runners) }

// EachRunner calls fn for every runner cache.
func (m *MarketCache) EachRunner(fn func(*RunnerCache)) {
	for _, r := range m.runners {
		fn(r)
	}
}
