package domain

import "time"

// PriceSizeLadder maps price to the current resting size at that price.
// A size update for a known price replaces the previous size (ladders
// represent levels, not cumulative volume). Trading activity is also
// pushed into three embedded rolling windows, which do accumulate.
type PriceSizeLadder struct {
	sizes map[float64]float64

	// Rolling trading-activity windows.
	Win10 *PriceSizeWindow
	Win20 *PriceSizeWindow
	Win30 *PriceSizeWindow
}

// NewPriceSizeLadder creates an empty ladder with 10s/20s/30s windows.
func NewPriceSizeLadder() *PriceSizeLadder {
	return &PriceSizeLadder{
		sizes: make(map[float64]float64),
		Win10: NewPriceSizeWindow(10 * time.Second),
		Win20: NewPriceSizeWindow(20 * time.Second),
		Win30: NewPriceSizeWindow(30 * time.Second),
	}
}

// Update applies a batch of [price, size] pairs stamped at ts. The
// ladder size for each price is replaced; the windows accumulate the
// observation regardless.
func (l *PriceSizeLadder) Update(pairs []PriceSize, ts int64) {
	if pairs == nil {
		return
	}
	for _, ps := range pairs {
		price, size := ps[0], ps[1]
		if _, ok := l.sizes[price]; !ok {
			l.sizes[price] = 0
		}
		l.sizes[price] = size

		l.Win10.Push(ts, price, size)
		l.Win20.Push(ts, price, size)
		l.Win30.Push(ts, price, size)
	}
}

// SizeForPrice returns the resting size at price, or zero for a price
// that has never been seen.
func (l *PriceSizeLadder) SizeForPrice(price float64) float64 {
	return l.sizes[price]
}

// TotalSize returns the sum of all resting sizes.
func (l *PriceSizeLadder) TotalSize() float64 {
	var total float64
	for _, s := range l.sizes {
		total += s
	}
	return total
}

// TotalReturn returns the sum of price*size over the ladder.
func (l *PriceSizeLadder) TotalReturn() float64 {
	var total float64
	for p, s := range l.sizes {
		total += p * s
	}
	return total
}

// Vwap returns the volume-weighted average price over the ladder, or
// zero when the ladder holds no size.
func (l *PriceSizeLadder) Vwap() float64 {
	size := l.TotalSize()
	if size == 0 {
		return 0
	}
	return l.TotalReturn() / size
}

// MostTradedPrice returns the price holding the ladder's maximum size.
// Prices tied at the maximum are averaged.
func (l *PriceSizeLadder) MostTradedPrice() float64 {
	if len(l.sizes) == 0 {
		return 0
	}
	var max float64
	for _, s := range l.sizes {
		if s > max {
			max = s
		}
	}
	var sum float64
	var n int
	for p, s := range l.sizes {
		if s == max {
			sum += p
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// PriceCount returns the number of distinct prices seen.
func (l *PriceSizeLadder) PriceCount() int {
	return len(l.sizes)
}
