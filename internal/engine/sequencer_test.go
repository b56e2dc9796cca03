package engine

import (
	"context"
	"testing"
	"time"

	"betstream/internal/domain"
	"betstream/internal/event"
)

func rawLine(seq uint64, ts int64, line string) *event.RawLineEvent {
	ev := event.AcquireRawLineEvent()
	ev.Seq = seq
	ev.Ts = ts
	ev.SetLine([]byte(line))
	return ev
}

func TestSequencer_ProcessEvent(t *testing.T) {
	t.Run("Line Updates Market State", func(t *testing.T) {
		s := NewSequencer(16, nil, nil)
		s.processEvent(rawLine(1, 100,
			`{"op":"mcm","pt":1700000000000,"mc":[{"id":"1.2345","tv":1000,"rc":[{"id":7,"ltp":2.5}]}]}`))

		summary, ok := s.GetMarketSummary("1.2345")
		if !ok {
			t.Fatal("Expected market 1.2345 to be tracked")
		}
		if summary.TotalMatched != 1000 {
			t.Errorf("Expected total matched 1000, got %v", summary.TotalMatched)
		}
		if len(summary.Runners) != 1 || summary.Runners[0].SelectionID != 7 {
			t.Fatalf("Expected one runner 7, got %+v", summary.Runners)
		}
	})

	t.Run("Sequence Gap Panics", func(t *testing.T) {
		s := NewSequencer(16, nil, nil)

		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected a panic on sequence gap")
			}
		}()
		s.processEvent(rawLine(5, 100, `{"op":"heartbeat"}`))
	})

	t.Run("Touched Markets Are Published", func(t *testing.T) {
		var published []string
		s := NewSequencer(16, nil, func(m *domain.MarketCache) {
			published = append(published, m.MarketID())
		})

		s.processEvent(rawLine(1, 100,
			`{"op":"mcm","pt":1000,"mc":[{"id":"1.1","tv":10},{"id":"1.2","tv":20}]}`))

		if len(published) != 2 {
			t.Fatalf("Expected 2 published markets, got %d", len(published))
		}
		if published[0] != "1.1" || published[1] != "1.2" {
			t.Errorf("Expected 1.1 then 1.2, got %v", published)
		}
	})
}

func TestSequencer_Run(t *testing.T) {
	applied := make(chan string, 4)
	s := NewSequencer(16, nil, func(m *domain.MarketCache) {
		applied <- m.MarketID()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	s.Inbox() <- rawLine(1, 100,
		`{"op":"mcm","pt":1000,"mc":[{"id":"1.2345","rc":[{"id":7,"ltp":3.0}]}]}`)
	s.Inbox() <- rawLine(2, 200,
		`{"op":"mcm","pt":2000,"mc":[{"id":"1.2345","rc":[{"id":7,"ltp":3.5}]}]}`)

	for i := 0; i < 2; i++ {
		select {
		case <-applied:
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for the hotpath to apply both lines")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Sequencer did not stop on context cancel")
	}

	summary, ok := s.GetMarketSummary("1.2345")
	if !ok {
		t.Fatal("Expected market 1.2345 to be tracked")
	}
	if len(summary.Runners) != 1 || summary.Runners[0].LastTradedPrice != 3.5 {
		t.Errorf("Expected runner 7 at 3.5, got %+v", summary.Runners)
	}
}

func TestSequencer_ReplayLine(t *testing.T) {
	t.Run("In Order Replay", func(t *testing.T) {
		s := NewSequencer(16, nil, nil)

		lines := []string{
			`{"op":"mcm","pt":1000,"mc":[{"id":"1.2345","tv":100}]}`,
			`{"op":"mcm","pt":2000,"mc":[{"id":"1.2345","tv":250}]}`,
		}
		for i, line := range lines {
			if err := s.ReplayLine(uint64(i+1), int64(i)*100, []byte(line)); err != nil {
				t.Fatalf("Replay of line %d failed: %v", i+1, err)
			}
		}

		summary, _ := s.GetMarketSummary("1.2345")
		if summary.TotalMatched != 250 {
			t.Errorf("Expected total matched 250, got %v", summary.TotalMatched)
		}
	})

	t.Run("Replay Gap Returns Error", func(t *testing.T) {
		s := NewSequencer(16, nil, nil)
		if err := s.ReplayLine(3, 0, []byte(`{"op":"heartbeat"}`)); err == nil {
			t.Error("Expected an error on replay gap")
		}
	})
}

func TestSequencer_MarketIDs(t *testing.T) {
	s := NewSequencer(16, nil, nil)
	s.processEvent(rawLine(1, 0, `{"op":"mcm","pt":1,"mc":[{"id":"1.1","tv":1}]}`))
	s.processEvent(rawLine(2, 0, `{"op":"mcm","pt":2,"mc":[{"id":"1.2","tv":1}]}`))

	ids := s.MarketIDs()
	if len(ids) != 2 {
		t.Errorf("Expected 2 tracked markets, got %v", ids)
	}
}
