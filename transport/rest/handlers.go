package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
	"github.com/rocketscienceinc/gomoku-backend/internal/service"
)

const (
	statusOK   = "ok"
	timeLayout = "2006-01-02T15:04:05.000Z07:00"
)

type roomSummary struct {
	ID          string     `json:"id"`
	PlayerCount int        `json:"playerCount"`
	PlayerNames []string   `json:"playerNames"`
	Phase       room.Phase `json:"phase"`
	CreatedAt   string     `json:"createdAt"`
}

type healthResponse struct {
	Status      string        `json:"status"`
	Timestamp   string        `json:"timestamp"`
	Rooms       int           `json:"rooms"`
	Connections int           `json:"connections"`
	RoomDetails []roomSummary `json:"roomDetails"`
	AllRoomIDs  []string      `json:"allRoomIds"`
}

type moveAdviceRequest struct {
	Board  [][]int     `json:"board"  binding:"required"`
	Player entity.Seat `json:"player" binding:"required"`
}

type moveAdviceResponse struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that *Server) ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (that *Server) health(c *gin.Context) {
	stats := that.game.Stats()

	details := make([]roomSummary, 0, len(stats.Rooms))
	ids := make([]string, 0, len(stats.Rooms))
	for _, snapshot := range stats.Rooms {
		names := make([]string, 0, len(snapshot.Players))
		for _, player := range snapshot.Players {
			names = append(names, player.Name)
		}

		details = append(details, roomSummary{
			ID:          snapshot.ID,
			PlayerCount: snapshot.PlayerCount,
			PlayerNames: names,
			Phase:       snapshot.Phase,
			CreatedAt:   snapshot.CreatedAt.UTC().Format(timeLayout),
		})
		ids = append(ids, snapshot.ID)
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:      statusOK,
		Timestamp:   that.now().UTC().Format(timeLayout),
		Rooms:       len(stats.Rooms),
		Connections: stats.Connections,
		RoomDetails: details,
		AllRoomIDs:  ids,
	})
}

func (that *Server) getRoom(c *gin.Context) {
	snapshot, err := that.game.GetRoom(c.Param("id"))
	if err != nil {
		if errors.Is(err, apperror.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": apperror.ErrRoomNotFound.Error()})
			return
		}

		that.internalError(c, "getRoom", err)

		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (that *Server) getMatch(c *gin.Context) {
	match, err := that.game.GetMatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": repository.ErrMatchNotFound.Error()})
			return
		}

		that.internalError(c, "getMatch", err)

		return
	}

	c.JSON(http.StatusOK, match)
}

// suggestMove - runs the local heuristic against a client supplied board.
func (that *Server) suggestMove(c *gin.Context) {
	var req moveAdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "board and player are required"})
		return
	}

	if !req.Player.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player must be 1 or 2"})
		return
	}

	board, err := entity.BoardFromCells(req.Board)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	position, err := that.bot.BestMove(board, req.Player)
	if err != nil {
		if errors.Is(err, service.ErrNoAvailableMoves) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		that.internalError(c, "suggestMove", err)

		return
	}

	c.JSON(http.StatusOK, moveAdviceResponse{Row: position.Row, Col: position.Col})
}

func (that *Server) internalError(c *gin.Context, method string, err error) {
	that.logger.Error("request failed", "method", method, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
