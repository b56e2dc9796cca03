package domain

import "testing"

func TestMarketCache_OnMarketChange(t *testing.T) {
	t.Run("Mismatched Market Is NoOp", func(t *testing.T) {
		m := NewMarketCache("1.2345")

		change := &MarketChange{MarketID: "1.9999", TotalMatched: 150, HasTotalMatched: true}
		m.OnMarketChange(change, 1000)

		if m.TotalMatched() != 0 || m.LastPublished() != 0 {
			t.Error("Change for another market must not mutate the cache")
		}
	})

	t.Run("Image Replace Clears State", func(t *testing.T) {
		m := NewMarketCache("1.2345")

		seed := &MarketChange{MarketID: "1.2345", TotalMatched: 150, HasTotalMatched: true}
		seed.RunnerChanges = []RunnerChange{{SelectionID: 1, HasSelectionID: true}}
		m.OnMarketChange(seed, 1000)

		if m.RunnerCount() != 1 {
			t.Fatalf("Expected 1 runner before image, got %d", m.RunnerCount())
		}

		m.OnMarketChange(&MarketChange{MarketID: "1.2345", Img: true}, 2000)

		if m.RunnerCount() != 0 {
			t.Errorf("Expected runners cleared, got %d", m.RunnerCount())
		}
		if m.TotalMatched() != 0 {
			t.Errorf("Expected total matched reset, got %v", m.TotalMatched())
		}
		if m.Definition() != nil {
			t.Error("Expected definition cleared")
		}
		if m.LastPublished() != 2000 {
			t.Errorf("Expected publish time 2000, got %d", m.LastPublished())
		}
	})

	t.Run("Zero Total Never Overwrites Positive", func(t *testing.T) {
		m := NewMarketCache("1.2345")

		m.OnMarketChange(&MarketChange{MarketID: "1.2345", TotalMatched: 150, HasTotalMatched: true}, 1000)
		m.OnMarketChange(&MarketChange{MarketID: "1.2345", TotalMatched: 0, HasTotalMatched: true}, 2000)

		if got := m.TotalMatched(); got != 150 {
			t.Errorf("Expected total matched to stay 150, got %v", got)
		}
	})

	t.Run("Runner Created Lazily And Skips Missing Id", func(t *testing.T) {
		m := NewMarketCache("1.2345")

		change := &MarketChange{MarketID: "1.2345"}
		change.RunnerChanges = []RunnerChange{
			{SelectionID: 12345, HasSelectionID: true, LastTraded: 2.5, HasLastTraded: true},
			{}, // no selection id, skipped
		}
		m.OnMarketChange(change, 1000)

		if m.RunnerCount() != 1 {
			t.Fatalf("Expected 1 runner, got %d", m.RunnerCount())
		}
		r := m.Runner(12345)
		if r == nil {
			t.Fatal("Runner should exist")
		}
		if ltp, ok := r.LastTradedPrice(); !ok || ltp != 2.5 {
			t.Errorf("Expected ltp 2.5, got %v", ltp)
		}
	})

	t.Run("Definition Replaced Wholesale And Forwarded", func(t *testing.T) {
		m := NewMarketCache("1.2345")

		def := &MarketDefinition{
			Status:  StatusSuspended,
			InPlay:  true,
			Version: 7,
			Runners: []RunnerDefinition{{SelectionID: 12345, AdjustmentFactor: 5.5, HasAdjustmentFactor: true}},
		}
		m.OnMarketChange(&MarketChange{MarketID: "1.2345", Definition: def}, 1000)

		got := m.Definition()
		if got == nil || got.Status != StatusSuspended || !got.InPlay || got.Version != 7 {
			t.Fatalf("Definition not applied: %+v", got)
		}
		if got == def {
			t.Error("Cache must own a copy, not the decoder scratch")
		}
		r := m.Runner(12345)
		if r == nil || r.AdjustmentFactor() != 5.5 {
			t.Error("Runner definition should reach the runner cache")
		}
	})
}

func TestMarketCache_OnOrderChange(t *testing.T) {
	m := NewMarketCache("1.2345")
	m.OnOrderChange(&OrderRunnerChange{
		SelectionID:  12345,
		MatchedBacks: []PriceSize{{2.0, 10}},
	})

	r := m.Runner(12345)
	if r == nil {
		t.Fatal("Order change should create the runner cache")
	}
	if got := r.MatchedBacks.SizeForPrice(2.0); got != 10 {
		t.Errorf("Expected matched size 10, got %v", got)
	}
}

func TestParseMarketStatus(t *testing.T) {
	cases := map[byte]MarketStatus{
		'O': StatusOpen,
		'S': StatusSuspended,
		'C': StatusClosed,
		'I': StatusInactive,
		'X': StatusUnknown,
	}
	for code, want := range cases {
		if got := ParseMarketStatus(code); got != want {
			t.Errorf("ParseMarketStatus(%q): expected %v, got %v", code, want, got)
		}
	}
}
