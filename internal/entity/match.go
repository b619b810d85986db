package entity

import (
	"fmt"
	"time"
)

// Move is an accepted placement.
type Move struct {
	Row    int  `json:"row"`
	Col    int  `json:"col"`
	Player Seat `json:"player"`
}

// Match is the archived record of one finished game.
type Match struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	Round      int       `json:"round"`
	Players    []Player  `json:"players"`
	Winner     Result    `json:"winner"`
	Moves      []Move    `json:"moves"`
	FinishedAt time.Time `json:"finished_at"`
}

func MatchID(roomID string, round int) string {
	return fmt.Sprintf("%s-%d", roomID, round)
}

func (that *Match) IsDraw() bool {
	return that.Winner == ResultDraw
}
