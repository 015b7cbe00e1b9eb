package ingestion

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"volume-reversion-lab/internal/domain"
	"volume-reversion-lab/internal/observability"
	"volume-reversion-lab/internal/storage"
)

const (
	maxRetries     = 3
	baseRetryDelay = 500 * time.Millisecond

	wsReadTimeout  = 30 * time.Second
	wsBatchSize    = 500
	wsBatchMaxWait = 2 * time.Second
)

// tradeMessage is the feed's wire format for one print.
type tradeMessage struct {
	Type        string  `json:"type"`
	TimestampMs int64   `json:"timestamp_ms"`
	Price       float64 `json:"price"`
	Volume      float64 `json:"volume"`
	Side        string  `json:"side"`
}

// WSTickSource records live time-and-sales prints from a websocket feed
// into a tick store. It is a data acquisition tool: the backtest itself
// only ever reads recorded sessions.
type WSTickSource struct {
	url     string
	session string
	store   storage.TickStore
	logger  *log.Logger

	dial func(ctx context.Context, url string) (wsConn, error)
}

// wsConn is the subset of *websocket.Conn the recorder uses.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// NewWSTickSource creates a recorder for one session feed.
func NewWSTickSource(url, session string, store storage.TickStore, logger *log.Logger) *WSTickSource {
	return &WSTickSource{
		url:     url,
		session: session,
		store:   store,
		logger:  logger,
		dial: func(ctx context.Context, url string) (wsConn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			return conn, err
		},
	}
}

// Record connects and consumes prints until the context is cancelled or the
// feed closes. Prints are flushed to the store in batches; the tail batch is
// flushed on shutdown. Reconnects with exponential backoff on read errors.
func (s *WSTickSource) Record(ctx context.Context) error {
	var batch []domain.Tick
	defer func() {
		if len(batch) > 0 {
			if err := s.store.InsertBulk(context.Background(), s.session, batch); err != nil {
				s.logger.Printf("flush of final %d ticks failed: %v", len(batch), err)
			}
		}
	}()

	attempt := 0
	lastFlush := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		conn, err := s.dial(ctx, s.url)
		if err != nil {
			attempt++
			observability.RecordWSReconnect()
			if attempt > maxRetries {
				return err
			}
			delay := baseRetryDelay * time.Duration(1<<(attempt-1))
			s.logger.Printf("dial %s failed (attempt %d/%d), retrying in %v: %v", s.url, attempt, maxRetries, delay, err)
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		attempt = 0
		s.logger.Printf("connected to %s", s.url)

		readErr := s.consume(ctx, conn, &batch, &lastFlush)
		conn.Close()
		if readErr == nil {
			return nil // clean close or cancellation
		}
		s.logger.Printf("read loop ended: %v", readErr)
	}
}

func (s *WSTickSource) consume(ctx context.Context, conn wsConn, batch *[]domain.Tick, lastFlush *time.Time) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			return err
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var msg tradeMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			observability.RecordParseError()
			s.logger.Printf("skipping unparseable message: %v", err)
			continue
		}
		if msg.Type != "" && msg.Type != "trade" {
			continue
		}

		*batch = append(*batch, domain.Tick{
			Timestamp: time.UnixMilli(msg.TimestampMs).UTC(),
			Price:     msg.Price,
			Side:      domain.NormalizeSide(msg.Side),
			Volume:    msg.Volume,
		})

		if len(*batch) >= wsBatchSize || time.Since(*lastFlush) >= wsBatchMaxWait {
			if err := s.store.InsertBulk(ctx, s.session, *batch); err != nil {
				return err
			}
			last := (*batch)[len(*batch)-1]
			observability.RecordTicksFlushed(len(*batch), last.Timestamp.Unix())
			*batch = (*batch)[:0]
			*lastFlush = time.Now()
		}
	}
}
