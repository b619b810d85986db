package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
)

// maxFrameSize caps a single inbound frame; larger frames close the connection.
const maxFrameSize = 1 << 20

var (
	ErrConnectionClosed = errors.New("connection is closed")
	ErrSendBufferFull   = errors.New("send buffer is full")
)

// client is one websocket session. It is the room.OutboundChannel of its participant.
type client struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger
	conf   config.WebSocket

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(logger *slog.Logger, id string, conn *websocket.Conn, conf config.WebSocket) *client {
	return &client{
		id:     id,
		conn:   conn,
		logger: logger.With("connID", id),
		conf:   conf,
		send:   make(chan []byte, conf.SendBuffer),
	}
}

// Send - queues an event without blocking. A client that cannot keep up is disconnected
// rather than left with a gap in its event stream.
func (that *client) Send(event room.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", event.EventType(), err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return ErrConnectionClosed
	}

	select {
	case that.send <- data:
		return nil
	default:
		that.logger.Warn("send buffer full, closing connection", "event", event.EventType())
		that.closed = true
		close(that.send)

		return ErrSendBufferFull
	}
}

// close - stops the write pump. Safe to call more than once.
func (that *client) close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	close(that.send)
}

// readPump - reads frames until the peer goes away or stops answering pings. Oversized and
// binary frames are passed to onReject and the session stays open; only frames above
// maxFrameSize break the connection.
func (that *client) readPump(onMessage func(data []byte), onReject func(err error)) {
	log := that.logger.With("method", "readPump")

	that.conn.SetReadLimit(max(maxFrameSize, that.conf.MaxMessageSize+1))

	if err := that.conn.SetReadDeadline(time.Now().Add(that.conf.PongWait)); err != nil {
		log.Error("failed to set read deadline", "error", err)
	}

	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(that.conf.PongWait))
	})

	for {
		messageType, reader, err := that.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn("unexpected close", "error", err)
			}

			return
		}

		data, err := io.ReadAll(io.LimitReader(reader, that.conf.MaxMessageSize+1))
		if err != nil {
			log.Warn("failed to read frame", "error", err)
			return
		}

		var rejected error
		switch {
		case messageType != websocket.TextMessage:
			rejected = errBinaryFrame
		case int64(len(data)) > that.conf.MaxMessageSize:
			rejected = fmt.Errorf("%w: exceeds %d bytes", errMessageTooLarge, that.conf.MaxMessageSize)
		}

		if rejected == nil {
			onMessage(data)
			continue
		}

		if _, err = io.Copy(io.Discard, reader); err != nil {
			log.Warn("failed to drain frame", "error", err)
			return
		}

		onReject(rejected)
	}
}

// writePump - writes queued events and pings until the send channel is closed.
func (that *client) writePump() {
	log := that.logger.With("method", "writePump")

	ticker := time.NewTicker(that.conf.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case data, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.conf.WriteWait))

			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.conf.WriteWait))

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("failed to write ping", "error", err)
				return
			}
		}
	}
}
