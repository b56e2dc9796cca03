package domain

import "time"

// TimeBuffer accumulates pushed values into buckets keyed by exact
// millisecond timestamp. Every push evicts buckets older than the
// window and hands the evicted values back to the caller, so the owner
// can adjust a running total instead of re-summing the whole window.
type TimeBuffer struct {
	windowMs int64
	buckets  map[int64]float64
	evicted  []float64 // scratch, reused between pushes
}

// NewTimeBuffer creates a buffer covering the given duration.
func NewTimeBuffer(window time.Duration) *TimeBuffer {
	return &TimeBuffer{
		windowMs: window.Milliseconds(),
		buckets:  make(map[int64]float64),
	}
}

// Push adds value to the bucket at ts and evicts every bucket older
// than ts minus the window. The returned slice holds the evicted
// values and is only valid until the next Push.
func (b *TimeBuffer) Push(ts int64, value float64) []float64 {
	b.buckets[ts] += value

	b.evicted = b.evicted[:0]
	horizon := ts - b.windowMs
	for t, v := range b.buckets {
		if t < horizon {
			b.evicted = append(b.evicted, v)
			delete(b.buckets, t)
		}
	}
	return b.evicted
}

// Count returns the number of live buckets.
func (b *TimeBuffer) Count() int {
	return len(b.buckets)
}

// TimeWindow maintains a rolling total and mean over a TimeBuffer.
// The total is updated incrementally: add the pushed value, subtract
// whatever the buffer evicted.
type TimeWindow struct {
	buf   *TimeBuffer
	total float64
	mean  float64
}

// NewTimeWindow creates a rolling window of the given duration.
func NewTimeWindow(window time.Duration) *TimeWindow {
	return &TimeWindow{buf: NewTimeBuffer(window)}
}

// Push records value at ts and refreshes the running total and mean.
func (w *TimeWindow) Push(ts int64, value float64) {
	w.total += value
	for _, v := range w.buf.Push(ts, value) {
		w.total -= v
	}
	if n := w.buf.Count(); n > 0 {
		w.mean = w.total / float64(n)
	} else {
		w.mean = 0
	}
}

// Total returns the sum of the live values.
func (w *TimeWindow) Total() float64 { return w.total }

// Mean returns the per-bucket mean of the live values.
func (w *TimeWindow) Mean() float64 { return w.mean }

// PriceSizeWindow pairs a size window with a price-weighted window to
// derive a rolling volume-weighted average price and a per-second
// traded rate over the same duration.
type PriceSizeWindow struct {
	window   time.Duration
	size     *TimeWindow
	weighted *TimeWindow
}

// NewPriceSizeWindow creates a price/size window of the given duration.
func NewPriceSizeWindow(window time.Duration) *PriceSizeWindow {
	return &PriceSizeWindow{
		window:   window,
		size:     NewTimeWindow(window),
		weighted: NewTimeWindow(window),
	}
}

// Push records a (price, size) observation at ts.
func (w *PriceSizeWindow) Push(ts int64, price, size float64) {
	w.size.Push(ts, size)
	w.weighted.Push(ts, price*size)
}

// Vwap returns the volume-weighted average price of the live window,
// or zero when no size is live.
func (w *PriceSizeWindow) Vwap() float64 {
	if w.size.Total() == 0 {
		return 0
	}
	return w.weighted.Total() / w.size.Total()
}

// TotalSize returns the total size traded inside the window.
func (w *PriceSizeWindow) TotalSize() float64 {
	return w.size.Total()
}

// RatePerSecond returns the traded size per second over the window.
func (w *PriceSizeWindow) RatePerSecond() float64 {
	secs := w.window.Seconds()
	if secs == 0 {
		return 0
	}
	return w.size.Total() / secs
}
