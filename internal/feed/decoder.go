package feed

import (
	"bytes"

	"betstream/internal/domain"
)

// Wire property names the decoders match on, compared as byte
// sequences so no per-message strings are allocated.
var (
	keyOp  = []byte("op")
	valMCM = []byte("mcm")

	keyPt = []byte("pt")
	keyMc = []byte("mc")

	keyID               = []byte("id")
	keyImg              = []byte("img")
	keyTv               = []byte("tv")
	keyMarketDefinition = []byte("marketDefinition")
	keyRc               = []byte("rc")

	keyMarketTime = []byte("marketTime")
	keyInPlay     = []byte("inPlay")
	keyStatus     = []byte("status")
	keyVersion    = []byte("version")
	keyRunners    = []byte("runners")

	keyLtp  = []byte("ltp")
	keyBatb = []byte("batb")
	keyBatl = []byte("batl")
	keyTrd  = []byte("trd")

	keyAdjustmentFactor = []byte("adjustmentFactor")
)

// maxLadderLevels is the deepest ladder the exchange publishes.
const maxLadderLevels = 10

// CacheProvider resolves the market cache owning a market id, or nil
// when the market is not tracked.
type CacheProvider func(marketID string) *domain.MarketCache

// Decoder turns raw market-change stream lines directly into cache
// mutations. No document tree is built: the walk is driven by the token
// reader, and decoded changes live in scratch state reused between
// lines. Not safe for concurrent use.
type Decoder struct {
	provider CacheProvider
	r        Reader
	change   domain.MarketChange
	def      domain.MarketDefinition
}

// NewDecoder creates a decoder that resolves caches via provider.
func NewDecoder(provider CacheProvider) *Decoder {
	return &Decoder{provider: provider}
}

// Decode processes one raw line. Lines whose op is not "mcm"
// (heartbeats, connection and status messages) are ignored; they belong
// to other collaborators.
func (d *Decoder) Decode(line []byte) {
	d.r.Reset(line)
	r := &d.r
	for {
		name := NextProperty(r)
		if bytes.Equal(name, endSentinel) {
			return
		}
		if bytes.Equal(name, keyOp) {
			if !r.Advance() || !ValueEquals(r, valMCM) {
				return
			}
			d.decodeMarketChangeMessage(r)
			return
		}
	}
}

// decodeMarketChangeMessage reads pt and walks the mc array. The feed
// always publishes pt before mc.
func (d *Decoder) decodeMarketChangeMessage(r *Reader) {
	var pt int64
	for {
		name := NextProperty(r)
		switch {
		case bytes.Equal(name, keyPt):
			if !r.Advance() {
				return
			}
			pt = r.Int64()
		case bytes.Equal(name, keyMc):
			d.decodeMarketChanges(r, pt)
			return
		case bytes.Equal(name, endSentinel):
			return
		}
	}
}

func (d *Decoder) decodeMarketChanges(r *Reader, pt int64) {
	if !r.Advance() || r.Kind() != KindArrayStart {
		return
	}
	for r.Advance() {
		switch r.Kind() {
		case KindObjectStart:
			d.decodeMarketChange(r, pt)
		case KindArrayEnd:
			return
		default:
			return
		}
	}
}

// decodeMarketChange walks one mc element. Unrecognized properties are
// skipped structurally: brace counting keeps the walk bounded, and the
// depth guard stops nested unknown objects from being misread as
// top-level fields.
func (d *Decoder) decodeMarketChange(r *Reader, pt int64) {
	mc := &d.change
	mc.Reset()
	depth := 1
	for r.Advance() {
		if EndOfObject(r, &depth) {
			break
		}
		if r.Kind() != KindProperty || depth != 1 {
			continue
		}
		name := r.Bytes()
		switch {
		case bytes.Equal(name, keyID):
			if !r.Advance() {
				return
			}
			mc.MarketID = string(r.Bytes())
		case bytes.Equal(name, keyImg):
			if !r.Advance() {
				return
			}
			mc.Img = r.Bool()
		case bytes.Equal(name, keyTv):
			if !r.Advance() {
				return
			}
			mc.TotalMatched = r.Float64()
			mc.HasTotalMatched = true
		case bytes.Equal(name, keyMarketDefinition):
			d.decodeMarketDefinition(r)
			mc.Definition = &d.def
		case bytes.Equal(name, keyRc):
			d.decodeRunnerChanges(r, mc)
		}
	}
	if mc.MarketID == "" {
		return
	}
	if cache := d.provider(mc.MarketID); cache != nil {
		cache.OnMarketChange(mc, pt)
	}
}

func (d *Decoder) decodeMarketDefinition(r *Reader) {
	def := &d.def
	def.Reset()
	if !r.Advance() || r.Kind() != KindObjectStart {
		return
	}
	depth := 1
	for r.Advance() {
		if EndOfObject(r, &depth) {
			return
		}
		if r.Kind() != KindProperty || depth != 1 {
			continue
		}
		name := r.Bytes()
		switch {
		case bytes.Equal(name, keyMarketTime):
			if !r.Advance() {
				return
			}
			def.MarketTime = r.Time()
		case bytes.Equal(name, keyInPlay):
			if !r.Advance() {
				return
			}
			def.InPlay = r.Bool()
		case bytes.Equal(name, keyStatus):
			if !r.Advance() {
				return
			}
			if b := r.Bytes(); len(b) > 0 {
				def.Status = domain.ParseMarketStatus(b[0])
			}
		case bytes.Equal(name, keyVersion):
			if !r.Advance() {
				return
			}
			def.Version = r.Int64()
		case bytes.Equal(name, keyRunners):
			d.decodeRunnerDefinitions(r, def)
		}
	}
}

func (d *Decoder) decodeRunnerDefinitions(r *Reader, def *domain.MarketDefinition) {
	if !r.Advance() || r.Kind() != KindArrayStart {
		return
	}
	for r.Advance() {
		switch r.Kind() {
		case KindObjectStart:
			d.decodeRunnerDefinition(r, def)
		case KindArrayEnd:
			return
		default:
			return
		}
	}
}

func (d *Decoder) decodeRunnerDefinition(r *Reader, def *domain.MarketDefinition) {
	var rd domain.RunnerDefinition
	depth := 1
	for r.Advance() {
		if EndOfObject(r, &depth) {
			break
		}
		if r.Kind() != KindProperty || depth != 1 {
			continue
		}
		name := r.Bytes()
		switch {
		case bytes.Equal(name, keyID):
			if !r.Advance() {
				return
			}
			rd.SelectionID = r.Int64()
		case bytes.Equal(name, keyAdjustmentFactor):
			if !r.Advance() {
				return
			}
			rd.AdjustmentFactor = r.Float64()
			rd.HasAdjustmentFactor = true
		}
	}
	def.Runners = append(def.Runners, rd)
}

func (d *Decoder) decodeRunnerChanges(r *Reader, mc *domain.MarketChange) {
	if !r.Advance() || r.Kind() != KindArrayStart {
		return
	}
	for r.Advance() {
		switch r.Kind() {
		case KindObjectStart:
			d.decodeRunnerChange(r, mc.NextRunnerChange())
		case KindArrayEnd:
			return
		default:
			return
		}
	}
}

func (d *Decoder) decodeRunnerChange(r *Reader, rc *domain.RunnerChange) {
	depth := 1
	for r.Advance() {
		if EndOfObject(r, &depth) {
			return
		}
		if r.Kind() != KindProperty || depth != 1 {
			continue
		}
		name := r.Bytes()
		switch {
		case bytes.Equal(name, keyID):
			if !r.Advance() {
				return
			}
			rc.SelectionID = r.Int64()
			rc.HasSelectionID = true
		case bytes.Equal(name, keyTv):
			if !r.Advance() {
				return
			}
			rc.TotalMatched = r.Float64()
			rc.HasTotalMatched = true
		case bytes.Equal(name, keyLtp):
			if !r.Advance() {
				return
			}
			rc.LastTraded = r.Float64()
			rc.HasLastTraded = true
		case bytes.Equal(name, keyBatb):
			rc.Batb = decodeLevels(r, rc.Batb)
		case bytes.Equal(name, keyBatl):
			rc.Batl = decodeLevels(r, rc.Batl)
		case bytes.Equal(name, keyTrd):
			rc.Trd = decodePriceSizes(r, rc.Trd)
		}
	}
}

// decodeLevels reads an array of [level, price, size] triples into out,
// which is pre-sized to the deepest ladder the exchange publishes.
// Missing sub-values stay zero.
func decodeLevels(r *Reader, out []domain.LevelPriceSize) []domain.LevelPriceSize {
	if out == nil {
		out = make([]domain.LevelPriceSize, 0, maxLadderLevels)
	}
	if !r.Advance() || r.Kind() != KindArrayStart {
		return out
	}
	for r.Advance() {
		switch r.Kind() {
		case KindArrayStart:
			var lps domain.LevelPriceSize
			for i := 0; i < len(lps); i++ {
				if !r.Advance() {
					return out
				}
				if r.Kind() != KindValue {
					break
				}
				lps[i] = r.Float64()
			}
			for r.Kind() != KindArrayEnd {
				if !r.Advance() {
					return out
				}
			}
			out = append(out, lps)
		case KindArrayEnd:
			return out
		default:
			return out
		}
	}
	return out
}

// decodePriceSizes reads an array of [price, size] pairs into out.
func decodePriceSizes(r *Reader, out []domain.PriceSize) []domain.PriceSize {
	if out == nil {
		out = make([]domain.PriceSize, 0, maxLadderLevels)
	}
	if !r.Advance() || r.Kind() != KindArrayStart {
		return out
	}
	for r.Advance() {
		switch r.Kind() {
		case KindArrayStart:
			var ps domain.PriceSize
			for i := 0; i < len(ps); i++ {
				if !r.Advance() {
					return out
				}
				if r.Kind() != KindValue {
					break
				}
				ps[i] = r.Float64()
			}
			for r.Kind() != KindArrayEnd {
				if !r.Advance() {
					return out
				}
			}
			out = append(out, ps)
		case KindArrayEnd:
			return out
		default:
			return out
		}
	}
	return out
}
