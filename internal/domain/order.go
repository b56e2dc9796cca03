package domain

// Order sides as they appear on the wire.
const (
	SideBack = "B"
	SideLay  = "L"
)

// UnmatchedOrder is one entry of an order change's unmatched-order
// list. Price and SizeRemaining may be null on the wire; entries with
// either missing contribute nothing to liability.
type UnmatchedOrder struct {
	Side             string // "B" or "L"
	Price            float64
	HasPrice         bool
	SizeRemaining    float64
	HasSizeRemaining bool
}

// OrderRunnerChange mirrors the per-selection entry of the order
// stream. It is decoded by the order-stream collaborator; this core
// only defines the mutation shape consumed by RunnerCache.
type OrderRunnerChange struct {
	SelectionID  int64
	MatchedBacks []PriceSize // "mb"
	MatchedLays  []PriceSize // "ml"
	Unmatched    []UnmatchedOrder
}
