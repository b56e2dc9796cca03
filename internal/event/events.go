package event

import "sync/atomic"

// Type defines the type of event.
type Type uint16

const (
	EvRawLine Type = iota + 1
	EvSystemHalt
)

// Event is the interface for all sequencer events.
type Event interface {
	GetSeq() uint64
	GetTs() int64
	GetType() Type
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"` // receive time, unix milliseconds
}

func (e BaseEvent) GetSeq() uint64 { return e.Seq }
func (e BaseEvent) GetTs() int64   { return e.Ts }

// RawLineEvent carries one raw line received from the stream, exactly
// as delivered by the transport. The buffer is owned by the event and
// reused through the pool.
type RawLineEvent struct {
	BaseEvent
	Line []byte `json:"-"`
}

func (e *RawLineEvent) GetType() Type { return EvRawLine }

// SetLine copies b into the event's reusable buffer. The transport's
// read buffer is only valid until the next read, so the line must be
// copied before the event crosses the inbox.
func (e *RawLineEvent) SetLine(b []byte) {
	e.Line = append(e.Line[:0], b...)
}

// NextSeq atomically increments and returns the shared gateway
// sequence. All workers feeding one sequencer must share the counter.
func NextSeq(seq *uint64) uint64 {
	return atomic.AddUint64(seq, 1)
}
