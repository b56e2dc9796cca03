package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"betstream/internal/domain"
	"betstream/internal/event"
	"betstream/internal/feed"
	"betstream/internal/infra"
)

// Sequencer is the core single-threaded event processor. It owns every
// market cache and is the only goroutine allowed to mutate them; the
// ordering guarantees of the stream (image replace, total-matched
// monotonicity) hold only under in-order, single-threaded processing.
type Sequencer struct {
	inbox   chan event.Event
	markets map[string]*domain.MarketCache
	nextSeq uint64
	store   domain.StreamStore
	decoder *feed.Decoder

	// caches touched while decoding the current line
	touched []*domain.MarketCache

	// Boundary: used to notify the read-side service of state changes
	onMarketUpdate func(*domain.MarketCache)

	mu sync.RWMutex // guards the markets map for external reads
}

// NewSequencer creates a new sequencer instance. store may be nil to
// disable stream capture.
func NewSequencer(inboxSize int, store domain.StreamStore, onUpdate func(*domain.MarketCache)) *Sequencer {
	s := &Sequencer{
		inbox:          make(chan event.Event, inboxSize),
		markets:        make(map[string]*domain.MarketCache),
		nextSeq:        1,
		store:          store,
		onMarketUpdate: onUpdate,
	}
	s.decoder = feed.NewDecoder(s.marketFor)
	return s
}

// Inbox returns the event channel. The stream worker sends events here.
func (s *Sequencer) Inbox() chan<- event.Event {
	return s.inbox
}

// Run starts the main event loop. This MUST be run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started (Single-Thread Hotpath)")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState("panic_dump.json")
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...")
			return
		case ev := <-s.inbox:
			s.processEvent(ev)
		}
	}
}

func (s *Sequencer) processEvent(ev event.Event) {
	// 1. Sequence Gap Check (Halt Policy)
	if ev.GetSeq() != s.nextSeq {
		panic(fmt.Sprintf("SEQUENCE_GAP_DETECTED: expected %d, got %d", s.nextSeq, ev.GetSeq()))
	}

	switch e := ev.(type) {
	case *event.RawLineEvent:
		// 2. WAL-first: capture the raw line before decoding
		if s.store != nil {
			if err := s.store.SaveLine(e.Seq, e.Ts, e.Line); err != nil {
				panic(fmt.Sprintf("CAPTURE_FAILURE: %v", err))
			}
		}
		s.handleLine(e)
		event.ReleaseRawLineEvent(e)
	default:
		slog.Warn("Unknown event type", slog.Any("type", ev.GetType()))
	}

	// 3. Increment Sequence
	s.nextSeq++
}

// ReplayLine processes one captured line synchronously without going
// through the inbox or re-capturing it. Used by recorder playback.
func (s *Sequencer) ReplayLine(seq uint64, ts int64, line []byte) error {
	if seq != s.nextSeq {
		return fmt.Errorf("replay gap: expected %d, got %d", s.nextSeq, seq)
	}
	ev := event.AcquireRawLineEvent()
	ev.Seq = seq
	ev.Ts = ts
	ev.SetLine(line)
	s.handleLine(ev)
	event.ReleaseRawLineEvent(ev)
	s.nextSeq++
	return nil
}

func (s *Sequencer) handleLine(e *event.RawLineEvent) {
	start := time.Now()
	s.touched = s.touched[:0]
	s.decoder.Decode(e.Line)
	infra.GlobalMetrics.RecordLine(len(e.Line), time.Since(start).Nanoseconds())

	if s.onMarketUpdate != nil {
		for _, cache := range s.touched {
			s.onMarketUpdate(cache)
		}
	}
}

// marketFor resolves (or lazily creates) the cache for a market id.
// Hotpath-only; the write lock is held just for map insertion so
// external readers never observe a torn map.
func (s *Sequencer) marketFor(marketID string) *domain.MarketCache {
	cache, ok := s.markets[marketID]
	if !ok {
		cache = domain.NewMarketCache(marketID)
		s.mu.Lock()
		s.markets[marketID] = cache
		s.mu.Unlock()
		infra.GlobalMetrics.SetMarketsTracked(int32(len(s.markets)))
	}
	s.touched = append(s.touched, cache)
	return cache
}

// GetMarketSummary returns a snapshot of one market (external read).
// Prefer the service's published summaries for concurrent access while
// the hotpath is running.
func (s *Sequencer) GetMarketSummary(marketID string) (domain.MarketSummary, bool) {
	s.mu.RLock()
	cache, ok := s.markets[marketID]
	s.mu.RUnlock()

	if !ok {
		return domain.MarketSummary{}, false
	}
	return cache.Summary(), true
}

// MarketIDs returns the ids of every tracked market.
func (s *Sequencer) MarketIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.markets))
	for id := range s.markets {
		ids = append(ids, id)
	}
	return ids
}

// DumpState writes the entire internal state to a file (for post-mortem).
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	summaries := make(map[string]domain.MarketSummary, len(s.markets))
	for id, cache := range s.markets {
		summaries[id] = cache.Summary()
	}

	data := struct {
		NextSeq uint64                          `json:"next_seq"`
		Markets map[string]domain.MarketSummary `json:"markets"`
	}{
		NextSeq: s.nextSeq,
		Markets: summaries,
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
