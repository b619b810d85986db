package room

import (
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const (
	EventConnectionEstablished = "connection_established"
	EventRoomCreated           = "room_created"
	EventRoomJoined            = "room_joined"
	EventPlayerJoined          = "player_joined"
	EventGameStart             = "game_start"
	EventMove                  = "move"
	EventGameOver              = "game_over"
	EventGameReset             = "game_reset"
	EventPlayerLeft            = "player_left"
	EventChatMessage           = "chat_message"
	EventError                 = "error"
)

// Event is a server to client message. Its JSON form carries the type discriminator.
type Event interface {
	EventType() string
}

type header struct {
	Type string `json:"type"`
}

func (that header) EventType() string {
	return that.Type
}

// RoomState is the full room state attached to join acks.
type RoomState struct {
	Phase         Phase           `json:"phase"`
	Board         [][]int         `json:"board"`
	CurrentPlayer entity.Seat     `json:"currentPlayer"`
	Winner        entity.Result   `json:"winner"`
	Players       []entity.Player `json:"players"`
	Round         int             `json:"round"`
}

// AckEvent answers create_room and join_room. GameState is the bare phase, clients branch on it.
type AckEvent struct {
	header
	RoomID       string      `json:"roomId"`
	PlayerID     string      `json:"playerId"`
	PlayerNumber entity.Seat `json:"playerNumber"`
	GameState    Phase       `json:"gameState"`
	State        RoomState   `json:"state"`
}

type PlayerJoinedEvent struct {
	header
	PlayersCount int             `json:"playersCount"`
	Players      []entity.Player `json:"players"`
}

type GameStartEvent struct {
	header
	Players       []entity.Player `json:"players"`
	CurrentPlayer entity.Seat     `json:"currentPlayer"`
}

type MoveEvent struct {
	header
	Move          entity.Move `json:"move"`
	CurrentPlayer entity.Seat `json:"currentPlayer"`
}

type GameOverEvent struct {
	header
	Winner entity.Result `json:"winner"`
	Move   entity.Move   `json:"move"`
}

type GameResetEvent struct {
	header
	CurrentPlayer entity.Seat `json:"currentPlayer"`
}

type PlayerLeftEvent struct {
	header
	PlayerID     string `json:"playerId"`
	PlayersCount int    `json:"playersCount"`
	Message      string `json:"message"`
}

type ChatMessageEvent struct {
	header
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

type MessageEvent struct {
	header
	Message string `json:"message"`
}

func NewErrorEvent(message string) MessageEvent {
	return MessageEvent{header: header{Type: EventError}, Message: message}
}

func NewConnectionEstablishedEvent(message string) MessageEvent {
	return MessageEvent{header: header{Type: EventConnectionEstablished}, Message: message}
}

func newChatMessageEvent(player entity.Player, text string, at time.Time) ChatMessageEvent {
	return ChatMessageEvent{
		header:     header{Type: EventChatMessage},
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Message:    text,
		Timestamp:  at.UnixMilli(),
	}
}
