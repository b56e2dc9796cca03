package domain

import "time"

// MarketStatus is the decoded market lifecycle state.
type MarketStatus uint8

const (
	StatusUnknown MarketStatus = iota
	StatusOpen
	StatusSuspended
	StatusClosed
	StatusInactive
)

// statusByCode maps the leading byte of the wire status value.
var statusByCode = map[byte]MarketStatus{
	'O': StatusOpen,
	'S': StatusSuspended,
	'C': StatusClosed,
	'I': StatusInactive,
}

// ParseMarketStatus maps a wire status byte (O/S/C/I) to its status.
func ParseMarketStatus(code byte) MarketStatus {
	return statusByCode[code]
}

func (s MarketStatus) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusSuspended:
		return "SUSPENDED"
	case StatusClosed:
		return "CLOSED"
	case StatusInactive:
		return "INACTIVE"
	}
	return "UNKNOWN"
}

// RunnerDefinition is one entry of a market definition's runners array.
type RunnerDefinition struct {
	SelectionID         int64
	AdjustmentFactor    float64
	HasAdjustmentFactor bool
}

// MarketDefinition is the decoded marketDefinition object. Definitions
// are replaced wholesale; there is no field-by-field merge.
type MarketDefinition struct {
	MarketTime time.Time
	InPlay     bool
	Status     MarketStatus
	Version    int64
	Runners    []RunnerDefinition
}

// Clone returns an owned deep copy. The decoder reuses its definition
// scratch between messages, so a cache must never retain the decoded
// value directly.
func (d *MarketDefinition) Clone() *MarketDefinition {
	c := *d
	c.Runners = append([]RunnerDefinition(nil), d.Runners...)
	return &c
}

// Reset clears the definition for reuse, keeping slice capacity.
func (d *MarketDefinition) Reset() {
	d.MarketTime = time.Time{}
	d.InPlay = false
	d.Status = StatusUnknown
	d.Version = 0
	d.Runners = d.Runners[:0]
}

// RunnerChange is one decoded element of a market change's rc array.
// Absent optional fields are signalled by the Has flags; the slices are
// scratch owned by the decoder and must be consumed before the next
// message is decoded.
type RunnerChange struct {
	SelectionID     int64
	HasSelectionID  bool
	TotalMatched    float64
	HasTotalMatched bool
	LastTraded      float64
	HasLastTraded   bool

	Batb []LevelPriceSize
	Batl []LevelPriceSize
	Trd  []PriceSize
}

// Reset clears the change for reuse, keeping slice capacity.
func (c *RunnerChange) Reset() {
	c.SelectionID = 0
	c.HasSelectionID = false
	c.TotalMatched = 0
	c.HasTotalMatched = false
	c.LastTraded = 0
	c.HasLastTraded = false
	c.Batb = c.Batb[:0]
	c.Batl = c.Batl[:0]
	c.Trd = c.Trd[:0]
}

// MarketChange is one decoded element of an mcm message's mc array.
type MarketChange struct {
	MarketID        string
	Img             bool
	TotalMatched    float64
	HasTotalMatched bool
	Definition      *MarketDefinition // nil when absent
	RunnerChanges   []RunnerChange
}

// Reset clears the change for reuse, keeping slice capacity.
func (c *MarketChange) Reset() {
	c.MarketID = ""
	c.Img = false
	c.TotalMatched = 0
	c.HasTotalMatched = false
	c.Definition = nil
	c.RunnerChanges = c.RunnerChanges[:0]
}

// NextRunnerChange returns a cleared slot for the next rc element,
// growing the backing slice only when capacity is exhausted.
func (c *MarketChange) NextRunnerChange() *RunnerChange {
	if len(c.RunnerChanges) < cap(c.RunnerChanges) {
		c.RunnerChanges = c.RunnerChanges[:len(c.RunnerChanges)+1]
	} else {
		c.RunnerChanges = append(c.RunnerChanges, RunnerChange{})
	}
	rc := &c.RunnerChanges[len(c.RunnerChanges)-1]
	rc.Reset()
	return rc
}
