package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/pkg"
	"github.com/rocketscienceinc/gomoku-backend/internal/registry"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
)

const archiveTimeout = 3 * time.Second

type matchRepo interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
}

// Stats is a point in time view of the server for health reporting.
type Stats struct {
	Connections int
	Rooms       []room.Snapshot
}

// GameManager turns client commands into registry and room operations.
type GameManager struct {
	logger        *slog.Logger
	registry      *registry.Registry
	matchRepo     matchRepo
	maxNameLength int
}

// NewGameManager - matchRepo may be nil, finished matches are then not archived.
func NewGameManager(logger *slog.Logger, registry *registry.Registry, matchRepo matchRepo, maxNameLength int) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		registry:      registry,
		matchRepo:     matchRepo,
		maxNameLength: maxNameLength,
	}
}

// CreateRoom - opens a new room and seats the connection in it.
func (that *GameManager) CreateRoom(_ context.Context, connID, name string, out room.OutboundChannel) (entity.Player, error) {
	log := that.logger.With("method", "CreateRoom", "connID", connID)

	if _, ok := that.registry.Resolve(connID); ok {
		return entity.Player{}, apperror.ErrAlreadyInRoom
	}

	created, err := that.registry.CreateRoom()
	if err != nil {
		return entity.Player{}, fmt.Errorf("failed to create room: %w", err)
	}

	player, err := created.Join(room.JoinRequest{
		PlayerID: pkg.GeneratePlayerID(),
		Name:     that.normalizeName(name),
		Out:      out,
		Creator:  true,
	})
	if err != nil {
		that.registry.RemoveIfEmpty(created.ID())
		return entity.Player{}, fmt.Errorf("failed to join created room %s: %w", created.ID(), err)
	}

	that.registry.Associate(connID, registry.Membership{RoomID: created.ID(), PlayerID: player.ID})
	log.Info("room created", "roomID", created.ID(), "playerID", player.ID)

	return player, nil
}

// JoinRoom - seats the connection in an existing room.
func (that *GameManager) JoinRoom(_ context.Context, connID, roomID, name string, out room.OutboundChannel) (entity.Player, error) {
	log := that.logger.With("method", "JoinRoom", "connID", connID, "roomID", roomID)

	if _, ok := that.registry.Resolve(connID); ok {
		return entity.Player{}, apperror.ErrAlreadyInRoom
	}

	target, ok := that.registry.FindRoom(roomID)
	if !ok {
		return entity.Player{}, fmt.Errorf("room %s: %w", roomID, apperror.ErrRoomNotFound)
	}

	player, err := target.Join(room.JoinRequest{
		PlayerID: pkg.GeneratePlayerID(),
		Name:     that.normalizeName(name),
		Out:      out,
	})
	if err != nil {
		return entity.Player{}, fmt.Errorf("failed to join room %s: %w", target.ID(), err)
	}

	that.registry.Associate(connID, registry.Membership{RoomID: target.ID(), PlayerID: player.ID})
	log.Info("player joined room", "playerID", player.ID, "seat", player.PlayerNumber)

	return player, nil
}

// MakeMove - plays a stone for the connection's seat and archives the game when it ends.
func (that *GameManager) MakeMove(ctx context.Context, connID string, row, col int) error {
	log := that.logger.With("method", "MakeMove", "connID", connID)

	membership, current, err := that.resolve(connID)
	if err != nil {
		return err
	}

	outcome, err := current.Move(membership.PlayerID, row, col)
	if err != nil {
		return fmt.Errorf("failed to make move in room %s: %w", membership.RoomID, err)
	}

	if outcome.Match != nil {
		log.Info("game finished", "roomID", membership.RoomID, "winner", outcome.Match.Winner)
		that.archive(ctx, outcome.Match)
	}

	return nil
}

func (that *GameManager) ResetGame(_ context.Context, connID string) error {
	membership, current, err := that.resolve(connID)
	if err != nil {
		return err
	}

	if err = current.Reset(membership.PlayerID); err != nil {
		return fmt.Errorf("failed to reset room %s: %w", membership.RoomID, err)
	}

	return nil
}

func (that *GameManager) SendChat(_ context.Context, connID, text string) error {
	membership, current, err := that.resolve(connID)
	if err != nil {
		return err
	}

	if err = current.Chat(membership.PlayerID, text); err != nil {
		return fmt.Errorf("failed to send chat in room %s: %w", membership.RoomID, err)
	}

	return nil
}

// Disconnect - removes the connection's participant and drops the room once it is empty.
func (that *GameManager) Disconnect(_ context.Context, connID string) {
	log := that.logger.With("method", "Disconnect", "connID", connID)

	membership, ok := that.registry.Resolve(connID)
	if !ok {
		return
	}
	defer that.registry.Disassociate(connID)

	current, ok := that.registry.FindRoom(membership.RoomID)
	if !ok {
		return
	}

	remaining, err := current.Leave(membership.PlayerID)
	if err != nil {
		log.Warn("failed to leave room", "roomID", membership.RoomID, "error", err)
		return
	}

	if remaining == 0 && that.registry.RemoveIfEmpty(membership.RoomID) {
		log.Info("empty room removed", "roomID", membership.RoomID)
	}
}

func (that *GameManager) GetRoom(roomID string) (room.Snapshot, error) {
	found, ok := that.registry.FindRoom(roomID)
	if !ok {
		return room.Snapshot{}, fmt.Errorf("room %s: %w", roomID, apperror.ErrRoomNotFound)
	}

	return found.Snapshot(), nil
}

func (that *GameManager) GetMatch(ctx context.Context, matchID string) (*entity.Match, error) {
	if that.matchRepo == nil {
		return nil, repository.ErrMatchNotFound
	}

	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match %s: %w", matchID, err)
	}

	return match, nil
}

// Stats - returns live rooms ordered by creation time.
func (that *GameManager) Stats() Stats {
	rooms := that.registry.Rooms()

	snapshots := make([]room.Snapshot, 0, len(rooms))
	for _, r := range rooms {
		snapshots = append(snapshots, r.Snapshot())
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})

	return Stats{
		Connections: that.registry.ConnectionCount(),
		Rooms:       snapshots,
	}
}

func (that *GameManager) resolve(connID string) (registry.Membership, *room.Room, error) {
	membership, ok := that.registry.Resolve(connID)
	if !ok {
		return registry.Membership{}, nil, apperror.ErrNotInRoom
	}

	current, ok := that.registry.FindRoom(membership.RoomID)
	if !ok {
		return registry.Membership{}, nil, fmt.Errorf("room %s: %w", membership.RoomID, apperror.ErrRoomNotFound)
	}

	return membership, current, nil
}

func (that *GameManager) archive(ctx context.Context, match *entity.Match) {
	if that.matchRepo == nil {
		return
	}

	log := that.logger.With("method", "archive", "matchID", match.ID)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		log.Error("failed to archive match", "error", err)
		return
	}

	log.Debug("match archived")
}

func (that *GameManager) normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if runes := []rune(name); that.maxNameLength > 0 && len(runes) > that.maxNameLength {
		name = string(runes[:that.maxNameLength])
	}

	return name
}
