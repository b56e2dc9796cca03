package event

import (
	"sync"
)

// rawLinePool provides sync.Pool for high-frequency event allocation.
// Use this to reduce GC pressure in the hotpath.
//
// Usage:
//
//	ev := AcquireRawLineEvent()
//	ev.SetLine(buf)
//	// ... send to the sequencer inbox ...
//	ReleaseRawLineEvent(ev)  // Return to pool after processing
var rawLinePool = sync.Pool{
	New: func() interface{} {
		return &RawLineEvent{}
	},
}

// AcquireRawLineEvent gets a RawLineEvent from the pool.
// The returned event has zero values and must be initialized.
func AcquireRawLineEvent() *RawLineEvent {
	return rawLinePool.Get().(*RawLineEvent)
}

// ReleaseRawLineEvent returns a RawLineEvent to the pool. The line
// buffer keeps its capacity so a recycled event does not reallocate.
func ReleaseRawLineEvent(ev *RawLineEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.Line = ev.Line[:0]

	rawLinePool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
// It acquires and releases a batch of events.
func Warmup() {
	const batchSize = 1000

	evs := make([]*RawLineEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		evs = append(evs, AcquireRawLineEvent())
	}
	for _, ev := range evs {
		ReleaseRawLineEvent(ev)
	}
}
