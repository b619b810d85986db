package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/pkg"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	welcomeMessage    = "connected to gomoku server"
)

type uGame interface {
	CreateRoom(ctx context.Context, connID, name string, out room.OutboundChannel) (entity.Player, error)
	JoinRoom(ctx context.Context, connID, roomID, name string, out room.OutboundChannel) (entity.Player, error)
	MakeMove(ctx context.Context, connID string, row, col int) error
	ResetGame(ctx context.Context, connID string) error
	SendChat(ctx context.Context, connID, text string) error
	Disconnect(ctx context.Context, connID string)
}

type handlerFunc func(ctx context.Context, message *Message, client *client) error

type Server struct {
	logger   *slog.Logger
	uGame    uGame
	conf     config.WebSocket
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc

	clientsMu sync.Mutex
	clients   map[string]*client
}

func New(logger *slog.Logger, uGame uGame, conf config.WebSocket) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		uGame:  uGame,
		conf:   conf,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// browsers on any origin may play
			CheckOrigin: func(*http.Request) bool { return true },
		},

		handlers: make(map[string]handlerFunc),
		clients:  make(map[string]*client),
	}

	server.handlers[actionCreateRoom] = server.handleCreateRoom
	server.handlers[actionJoinRoom] = server.handleJoinRoom
	server.handlers[actionMakeMove] = server.handleMakeMove
	server.handlers[actionResetGame] = server.handleResetGame
	server.handlers[actionSendMessage] = server.handleSendMessage

	return server
}

// Handler - returns the HTTP handler serving the /ws endpoint.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and blocks until ctx is done or the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}

		that.closeAll()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection and serves it until it closes.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(that.logger, pkg.GenerateConnectionID(), conn, that.conf)
	that.register(c)

	log.Info("WebSocket connection established", "connID", c.id, "remote", req.RemoteAddr)

	go c.writePump()

	if err = c.Send(room.NewConnectionEstablishedEvent(welcomeMessage)); err != nil {
		log.Warn("failed to send welcome", "connID", c.id, "error", err)
	}

	c.readPump(func(data []byte) {
		that.handleMessage(ctx, c, data)
	}, func(err error) {
		log.Info("frame rejected", "connID", c.id, "error", err)
		that.sendErrorResponse(c, err)
	})

	that.handleDisconnect(ctx, c)
}

// handleMessage - decodes one envelope and dispatches it. Failures are reported to the sender only.
func (that *Server) handleMessage(ctx context.Context, c *client, data []byte) {
	log := that.logger.With("method", "handleMessage", "connID", c.id)

	message, err := decodeMessage(data)
	if err != nil {
		log.Info("malformed message", "error", err)
		that.sendErrorResponse(c, err)

		return
	}

	handler, ok := that.handlers[message.Type]
	if !ok {
		log.Info("unknown message type", "type", message.Type)
		that.sendErrorResponse(c, fmt.Errorf("%w: %s", apperror.ErrUnknownCommand, message.Type))

		return
	}

	if err = handler(ctx, message, c); err != nil {
		log.Info("request rejected", "type", message.Type, "error", err)
		that.sendErrorResponse(c, err)
	}
}

func (that *Server) handleDisconnect(ctx context.Context, c *client) {
	that.unregister(c)
	c.close()
	that.uGame.Disconnect(ctx, c.id)

	that.logger.Info("WebSocket connection closed", "connID", c.id)
}

func (that *Server) register(c *client) {
	that.clientsMu.Lock()
	defer that.clientsMu.Unlock()

	that.clients[c.id] = c
}

func (that *Server) unregister(c *client) {
	that.clientsMu.Lock()
	defer that.clientsMu.Unlock()

	delete(that.clients, c.id)
}

// closeAll - closes every open session. Their read pumps then run the normal disconnect path.
func (that *Server) closeAll() {
	that.clientsMu.Lock()
	defer that.clientsMu.Unlock()

	for _, c := range that.clients {
		c.close()
		_ = c.conn.Close()
	}
}
