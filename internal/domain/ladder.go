package domain

// LevelPriceSize is one decoded ladder entry as it appears on the wire:
// [level, price, size]. Level is zero-based.
type LevelPriceSize [3]float64

// PriceSize is one decoded [price, size] pair.
type PriceSize [2]float64

type ladderPoint struct {
	price float64
	size  float64
}

// LevelLadder is a fixed-depth, level-indexed ladder (e.g. the best
// three prices available to back). An entry is created on first sight
// of its level and updated in place afterwards; levels are never
// removed.
type LevelLadder struct {
	levels map[int]*ladderPoint
}

// NewLevelLadder creates an empty level ladder.
func NewLevelLadder() *LevelLadder {
	return &LevelLadder{levels: make(map[int]*ladderPoint)}
}

// ProcessLevel applies one [level, price, size] triple. Repeated calls
// for the same level only take the update path, so the call is
// idempotent.
func (l *LevelLadder) ProcessLevel(lps LevelPriceSize) {
	level := int(lps[0])
	if _, ok := l.levels[level]; !ok {
		l.levels[level] = &ladderPoint{price: lps[1], size: lps[2]}
	}
	p := l.levels[level]
	p.price = lps[1]
	p.size = lps[2]
}

// Price returns the price at the 1-based level, or zero if the level
// has never been seen. Level 1 is the best price.
func (l *LevelLadder) Price(level int) float64 {
	if p, ok := l.levels[level-1]; ok {
		return p.price
	}
	return 0
}

// Size returns the size at the 1-based level, or zero if the level has
// never been seen.
func (l *LevelLadder) Size(level int) float64 {
	if p, ok := l.levels[level-1]; ok {
		return p.size
	}
	return 0
}

// Depth returns the number of levels seen so far.
func (l *LevelLadder) Depth() int {
	return len(l.levels)
}
