package domain

import "context"

// StreamWorker defines the interface for exchange stream connectors
type StreamWorker interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// SessionProvider defines the interface for session keep-alive sources
type SessionProvider interface {
	Start(ctx context.Context) error
	Token() string
}

// StreamStore defines how raw stream lines are recorded and replayed
type StreamStore interface {
	SaveLine(seq uint64, receivedAt int64, line []byte) error
	Replay(fn func(seq uint64, receivedAt int64, line []byte) error) error
}
