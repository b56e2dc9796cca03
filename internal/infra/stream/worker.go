package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"betstream/internal/domain"
	"betstream/internal/event"
	"betstream/internal/infra"

	"github.com/gorilla/websocket"
)

const (
	maxRetries       = 10
	heartbeatDefault = 5 * time.Second
	readTimeout      = 30 * time.Second
)

// authMessage is the first message sent on every new connection.
type authMessage struct {
	Op      string `json:"op"`
	AppKey  string `json:"appKey"`
	Session string `json:"session"`
}

// subscriptionMessage subscribes the connection to a set of markets.
type subscriptionMessage struct {
	Op           string `json:"op"`
	MarketFilter struct {
		MarketIDs []string `json:"marketIds"`
	} `json:"marketFilter"`
	MarketDataFilter struct {
		Fields       []string `json:"fields"`
		LadderLevels int      `json:"ladderLevels,omitempty"`
	} `json:"marketDataFilter"`
	ConflateMS int `json:"conflateMs,omitempty"`
}

// Worker maintains the market stream connection: authenticate,
// subscribe, heartbeat, and hand every received line to the sequencer
// inbox as a pooled raw-line event. A single reader goroutine and a
// blocking inbox send preserve arrival order; lines are never dropped.
type Worker struct {
	wsURL      string
	appKey     string
	session    func() string // latest token, re-read on every reconnect
	markets    []string
	levels     int
	conflateMS int

	inbox chan<- event.Event
	seq   *uint64

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWorker creates a stream gateway worker. session supplies the
// current session token; it is called on every connect so rotated
// tokens are picked up.
func NewWorker(wsURL, appKey string, session func() string, markets []string, levels, conflateMS int, inbox chan<- event.Event, seq *uint64) *Worker {
	return &Worker{
		wsURL:      wsURL,
		appKey:     appKey,
		session:    session,
		markets:    markets,
		levels:     levels,
		conflateMS: conflateMS,
		inbox:      inbox,
		seq:        seq,
	}
}

// Connect starts the connection loop
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			if !domain.IsRetriable(err) {
				slog.Error("Stream connection failed permanently", slog.Any("error", err))
				return
			}
			slog.Warn("Stream connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			w.readLoop(ctx)
			infra.GlobalMetrics.RecordReconnect()
		}
	}
}

func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return domain.NewNetworkError("dial", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()
	infra.GlobalMetrics.IncrementConnections()

	if err := w.authenticate(); err != nil {
		w.closeConnection()
		return domain.NewNetworkError("authenticate", err)
	}
	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return domain.NewNetworkError("subscribe", err)
	}

	go w.heartbeatLoop(ctx)
	slog.Info("Stream connected", slog.Int("markets", len(w.markets)))
	return nil
}

func (w *Worker) authenticate() error {
	msg := authMessage{Op: "authentication", AppKey: w.appKey, Session: w.session()}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *Worker) subscribe() error {
	msg := subscriptionMessage{Op: "marketSubscription"}
	msg.MarketFilter.MarketIDs = w.markets
	msg.MarketDataFilter.Fields = []string{"EX_BEST_OFFERS", "EX_TRADED", "EX_LTP", "EX_MARKET_DEF"}
	msg.MarketDataFilter.LadderLevels = w.levels
	msg.ConflateMS = w.conflateMS

	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal subscription", slog.Any("error", err))
		return err
	}
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *Worker) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(heartbeatDefault)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.threadSafeWrite(websocket.TextMessage, []byte(`{"op":"heartbeat"}`))
		}
	}
}

func (w *Worker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		if w.conn == nil {
			w.mu.RUnlock()
			return
		}
		w.conn.SetReadDeadline(time.Now().Add(readTimeout))
		w.mu.RUnlock()

		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			w.closeConnection()
			return
		}
		w.handleLine(ctx, msg)
	}
}

// handleLine copies the received line into a pooled event and sends it
// to the sequencer. The send blocks: cache correctness depends on every
// line arriving, in order.
func (w *Worker) handleLine(ctx context.Context, msg []byte) {
	ev := event.AcquireRawLineEvent()
	ev.Seq = event.NextSeq(w.seq)
	ev.Ts = time.Now().UnixMilli()
	ev.SetLine(msg)

	select {
	case w.inbox <- ev:
	case <-ctx.Done():
		event.ReleaseRawLineEvent(ev)
	}
}

func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
		infra.GlobalMetrics.DecrementConnections()
	}
	w.connected = false
}

// IsConnected reports whether the worker currently holds a connection.
func (w *Worker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

// Disconnect stops the worker and closes the connection.
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
