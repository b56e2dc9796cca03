package feed

import (
	"testing"

	"betstream/internal/domain"
)

func testProvider(caches map[string]*domain.MarketCache) CacheProvider {
	return func(marketID string) *domain.MarketCache {
		return caches[marketID]
	}
}

func TestDecoder_Decode(t *testing.T) {
	t.Run("Market Change Message", func(t *testing.T) {
		cache := domain.NewMarketCache("1.2345")
		d := NewDecoder(testProvider(map[string]*domain.MarketCache{"1.2345": cache}))

		d.Decode([]byte(`{"op":"mcm","id":2,"clk":"ABC","pt":1700000000000,` +
			`"mc":[{"id":"1.2345","tv":1000,"rc":[{"id":12345,"ltp":2.5,"batb":[[0,2.5,100]]}]}]}`))

		if got := cache.TotalMatched(); got != 1000 {
			t.Errorf("Expected total matched 1000, got %v", got)
		}
		if got := cache.LastPublished(); got != 1700000000000 {
			t.Errorf("Expected publish time 1700000000000, got %v", got)
		}
		runner := cache.Runner(12345)
		if runner == nil {
			t.Fatal("Expected runner 12345 to be created")
		}
		if ltp, ok := runner.LastTradedPrice(); !ok || ltp != 2.5 {
			t.Errorf("Expected last traded 2.5, got %v (seen=%v)", ltp, ok)
		}
		if got := runner.BestAvailableToBack.Price(1); got != 2.5 {
			t.Errorf("Expected best back price 2.5, got %v", got)
		}
		if got := runner.BestAvailableToBack.Size(1); got != 100 {
			t.Errorf("Expected best back size 100, got %v", got)
		}
	})

	t.Run("Traded Ladder And Windows", func(t *testing.T) {
		cache := domain.NewMarketCache("1.2345")
		d := NewDecoder(testProvider(map[string]*domain.MarketCache{"1.2345": cache}))

		d.Decode([]byte(`{"op":"mcm","pt":1000,"mc":[{"id":"1.2345","rc":[{"id":7,"trd":[[2.0,50],[3.0,150]]}]}]}`))

		runner := cache.Runner(7)
		if runner == nil {
			t.Fatal("Expected runner 7 to be created")
		}
		if got := runner.Traded.TotalSize(); got != 200 {
			t.Errorf("Expected traded total 200, got %v", got)
		}
		if got := runner.Traded.SizeForPrice(3.0); got != 150 {
			t.Errorf("Expected 150 traded at 3.0, got %v", got)
		}
	})

	t.Run("Market Definition", func(t *testing.T) {
		cache := domain.NewMarketCache("1.2345")
		d := NewDecoder(testProvider(map[string]*domain.MarketCache{"1.2345": cache}))

		d.Decode([]byte(`{"op":"mcm","pt":1000,"mc":[{"id":"1.2345",` +
			`"marketDefinition":{"status":"OPEN","inPlay":true,"version":3,` +
			`"marketTime":"2030-04-01T13:00:00.000Z",` +
			`"runners":[{"id":7,"adjustmentFactor":12.5},{"id":8}]}}]}`))

		def := cache.Definition()
		if def == nil {
			t.Fatal("Expected a definition")
		}
		if def.Status != domain.StatusOpen {
			t.Errorf("Expected OPEN, got %v", def.Status)
		}
		if !def.InPlay || def.Version != 3 {
			t.Errorf("Expected inPlay v3, got inPlay=%v version=%d", def.InPlay, def.Version)
		}
		if def.MarketTime.Year() != 2030 {
			t.Errorf("Expected market time in 2030, got %v", def.MarketTime)
		}
		if len(def.Runners) != 2 {
			t.Fatalf("Expected 2 runner definitions, got %d", len(def.Runners))
		}
		if got := cache.Runner(7).AdjustmentFactor(); got != 12.5 {
			t.Errorf("Expected adjustment factor 12.5, got %v", got)
		}
	})

	t.Run("Non Market Change Ops Are Ignored", func(t *testing.T) {
		cache := domain.NewMarketCache("1.2345")
		d := NewDecoder(testProvider(map[string]*domain.MarketCache{"1.2345": cache}))

		d.Decode([]byte(`{"op":"connection","connectionId":"abc"}`))
		d.Decode([]byte(`{"op":"status","statusCode":"SUCCESS"}`))

		if cache.LastPublished() != 0 || cache.RunnerCount() != 0 {
			t.Error("Non-mcm lines must not touch the cache")
		}
	})

	t.Run("Untracked Market Is Skipped", func(t *testing.T) {
		other := domain.NewMarketCache("1.999")
		d := NewDecoder(testProvider(map[string]*domain.MarketCache{"1.999": other}))

		d.Decode([]byte(`{"op":"mcm","pt":1000,"mc":[{"id":"1.2345","tv":50}]}`))

		if other.LastPublished() != 0 || other.TotalMatched() != 0 {
			t.Error("A change for another market must leave tracked caches untouched")
		}
	})

	t.Run("Unknown Properties Are Skipped Structurally", func(t *testing.T) {
		cache := domain.NewMarketCache("1.2345")
		d := NewDecoder(testProvider(map[string]*domain.MarketCache{"1.2345": cache}))

		// The unknown nested object carries an "id" that must not be
		// mistaken for the market id, and a "tv" that must not be
		// mistaken for the market total.
		d.Decode([]byte(`{"op":"mcm","pt":1000,"mc":[{"id":"1.2345",` +
			`"mystery":{"id":"9.999","tv":777},"tv":42}]}`))

		if got := cache.TotalMatched(); got != 42 {
			t.Errorf("Expected total matched 42, got %v", got)
		}
	})

	t.Run("Image Replace Resets The Cache", func(t *testing.T) {
		cache := domain.NewMarketCache("1.2345")
		d := NewDecoder(testProvider(map[string]*domain.MarketCache{"1.2345": cache}))

		d.Decode([]byte(`{"op":"mcm","pt":1000,"mc":[{"id":"1.2345","tv":500,"rc":[{"id":7,"ltp":2.0}]}]}`))
		d.Decode([]byte(`{"op":"mcm","pt":2000,"mc":[{"id":"1.2345","img":true,"rc":[{"id":8,"ltp":3.0}]}]}`))

		if cache.Runner(7) != nil {
			t.Error("Image replace must discard pre-image runners")
		}
		if cache.Runner(8) == nil {
			t.Error("Expected post-image runner 8")
		}
		if cache.TotalMatched() != 0 {
			t.Errorf("Expected total matched reset, got %v", cache.TotalMatched())
		}
	})

	t.Run("Two Markets In One Message", func(t *testing.T) {
		a := domain.NewMarketCache("1.1")
		b := domain.NewMarketCache("1.2")
		d := NewDecoder(testProvider(map[string]*domain.MarketCache{"1.1": a, "1.2": b}))

		d.Decode([]byte(`{"op":"mcm","pt":1000,"mc":[{"id":"1.1","tv":10},{"id":"1.2","tv":20}]}`))

		if a.TotalMatched() != 10 || b.TotalMatched() != 20 {
			t.Errorf("Expected 10/20, got %v/%v", a.TotalMatched(), b.TotalMatched())
		}
	})
}

func BenchmarkDecoder_Decode(b *testing.B) {
	cache := domain.NewMarketCache("1.2345")
	d := NewDecoder(testProvider(map[string]*domain.MarketCache{"1.2345": cache}))
	line := []byte(`{"op":"mcm","id":2,"clk":"ABC","pt":1700000000000,` +
		`"mc":[{"id":"1.2345","tv":1000,"rc":[{"id":12345,"ltp":2.5,` +
		`"batb":[[0,2.5,100],[1,2.4,80]],"batl":[[0,2.6,90]],"trd":[[2.5,300]]}]}]}`)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Decode(line)
	}
}
