package websocket

import (
	"context"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
)

func (that *Server) handleCreateRoom(ctx context.Context, message *Message, c *client) error {
	var req createRoomRequest
	if err := decodePayload(message, &req); err != nil {
		return err
	}

	if _, err := that.uGame.CreateRoom(ctx, c.id, req.PlayerName, c); err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

func (that *Server) handleJoinRoom(ctx context.Context, message *Message, c *client) error {
	var req joinRoomRequest
	if err := decodePayload(message, &req); err != nil {
		return err
	}

	if strings.TrimSpace(req.RoomID) == "" {
		return fmt.Errorf("%w: roomId is required", apperror.ErrMalformedEnvelope)
	}

	if _, err := that.uGame.JoinRoom(ctx, c.id, req.RoomID, req.PlayerName, c); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, message *Message, c *client) error {
	var req makeMoveRequest
	if err := decodePayload(message, &req); err != nil {
		return err
	}

	if req.Row == nil || req.Col == nil {
		return fmt.Errorf("%w: row and col are required", apperror.ErrMalformedEnvelope)
	}

	if err := that.uGame.MakeMove(ctx, c.id, *req.Row, *req.Col); err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	return nil
}

func (that *Server) handleResetGame(ctx context.Context, _ *Message, c *client) error {
	if err := that.uGame.ResetGame(ctx, c.id); err != nil {
		return fmt.Errorf("failed to reset game: %w", err)
	}

	return nil
}

func (that *Server) handleSendMessage(ctx context.Context, message *Message, c *client) error {
	var req sendMessageRequest
	if err := decodePayload(message, &req); err != nil {
		return err
	}

	if err := that.uGame.SendChat(ctx, c.id, req.Message); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// sendErrorResponse - reports a rejected command to its sender only.
func (that *Server) sendErrorResponse(c *client, err error) {
	if sendErr := c.Send(room.NewErrorEvent(apperror.Message(err))); sendErr != nil {
		that.logger.Warn("failed to send error response", "connID", c.id, "error", sendErr)
	}
}
