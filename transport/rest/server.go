package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
	"github.com/rocketscienceinc/gomoku-backend/internal/service"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type restGame interface {
	GetRoom(roomID string) (room.Snapshot, error)
	GetMatch(ctx context.Context, matchID string) (*entity.Match, error)
	Stats() usecase.Stats
}

type Server struct {
	logger *slog.Logger
	game   restGame
	bot    service.BotService
	now    func() time.Time
}

func New(logger *slog.Logger, game restGame, bot service.BotService) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		game:   game,
		bot:    bot,
		now:    time.Now,
	}
}

// Handler - builds the gin engine with every HTTP route.
func (that *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), that.requestLogger())

	router.GET("/ping", that.ping)
	router.GET("/health", that.health)

	api := router.Group("/api")
	api.GET("/rooms/:id", that.getRoom)
	api.GET("/matches/:id", that.getMatch)
	api.POST("/ai/move", that.suggestMove)

	return router
}

// Start - serves HTTP until ctx is done or the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		that.logger.Debug("request served",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(started),
		)
	}
}
