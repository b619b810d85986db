package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/pkg"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
)

const maxCreateAttempts = 10

var ErrRoomIDExhausted = errors.New("could not generate a unique room id")

// Membership is what a connection represents once it has joined a room.
type Membership struct {
	RoomID   string
	PlayerID string
}

// Registry owns every live room and the connection to participant mapping.
type Registry struct {
	base   *slog.Logger
	logger *slog.Logger

	roomsMu sync.RWMutex
	rooms   map[string]*room.Room

	connsMu sync.RWMutex
	conns   map[string]Membership

	newID func() string
	now   func() time.Time
}

type Option func(*Registry)

// WithIDGenerator - replaces the room code generator.
func WithIDGenerator(gen func() string) Option {
	return func(that *Registry) {
		that.newID = gen
	}
}

func WithClock(now func() time.Time) Option {
	return func(that *Registry) {
		that.now = now
	}
}

func New(logger *slog.Logger, opts ...Option) *Registry {
	registry := &Registry{
		base:   logger,
		logger: logger.With("component", "registry"),
		rooms:  make(map[string]*room.Room),
		conns:  make(map[string]Membership),
		newID:  pkg.GenerateRoomID,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(registry)
	}

	return registry
}

// CreateRoom - inserts a new waiting room under an id that no live room uses.
func (that *Registry) CreateRoom() (*room.Room, error) {
	log := that.logger.With("method", "CreateRoom")

	that.roomsMu.Lock()
	defer that.roomsMu.Unlock()

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		id := pkg.NormalizeRoomID(that.newID())
		if _, exists := that.rooms[id]; exists {
			log.Warn("room id collision", "roomID", id, "attempt", attempt)
			continue
		}

		created := room.New(that.base, id, that.now())
		that.rooms[id] = created

		log.Info("room created", "roomID", id)

		return created, nil
	}

	return nil, ErrRoomIDExhausted
}

func (that *Registry) FindRoom(id string) (*room.Room, bool) {
	that.roomsMu.RLock()
	defer that.roomsMu.RUnlock()

	found, ok := that.rooms[pkg.NormalizeRoomID(id)]

	return found, ok
}

// RemoveIfEmpty - drops a room nobody sits in. Occupied rooms are kept.
func (that *Registry) RemoveIfEmpty(id string) bool {
	that.roomsMu.Lock()
	defer that.roomsMu.Unlock()

	id = pkg.NormalizeRoomID(id)

	found, ok := that.rooms[id]
	if !ok || !found.Retire() {
		return false
	}

	delete(that.rooms, id)
	that.logger.Info("room removed", "roomID", id)

	return true
}

// ReapEmptyRooms - removes abandoned rooms created more than maxAge ago and returns how many went.
func (that *Registry) ReapEmptyRooms(maxAge time.Duration) int {
	that.roomsMu.Lock()
	defer that.roomsMu.Unlock()

	now := that.now()
	reaped := 0

	for id, candidate := range that.rooms {
		if now.Sub(candidate.CreatedAt()) <= maxAge {
			continue
		}

		if !candidate.IsAbandoned() || !candidate.Retire() {
			continue
		}

		delete(that.rooms, id)
		reaped++
	}

	return reaped
}

// Run - reaps empty rooms every interval until ctx is done.
func (that *Registry) Run(ctx context.Context, interval, maxAge time.Duration) {
	log := that.logger.With("method", "Run")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if reaped := that.ReapEmptyRooms(maxAge); reaped > 0 {
				log.Info("reaped empty rooms", "count", reaped, "remaining", that.RoomCount())
			}
		case <-ctx.Done():
			log.Info("reaper stopped")
			return
		}
	}
}

func (that *Registry) Associate(connID string, membership Membership) {
	that.connsMu.Lock()
	defer that.connsMu.Unlock()

	that.conns[connID] = membership
}

func (that *Registry) Resolve(connID string) (Membership, bool) {
	that.connsMu.RLock()
	defer that.connsMu.RUnlock()

	membership, ok := that.conns[connID]

	return membership, ok
}

func (that *Registry) Disassociate(connID string) {
	that.connsMu.Lock()
	defer that.connsMu.Unlock()

	delete(that.conns, connID)
}

func (that *Registry) RoomCount() int {
	that.roomsMu.RLock()
	defer that.roomsMu.RUnlock()

	return len(that.rooms)
}

func (that *Registry) ConnectionCount() int {
	that.connsMu.RLock()
	defer that.connsMu.RUnlock()

	return len(that.conns)
}

// Rooms - returns the live rooms in no particular order.
func (that *Registry) Rooms() []*room.Room {
	that.roomsMu.RLock()
	defer that.roomsMu.RUnlock()

	rooms := make([]*room.Room, 0, len(that.rooms))
	for _, r := range that.rooms {
		rooms = append(rooms, r)
	}

	return rooms
}
