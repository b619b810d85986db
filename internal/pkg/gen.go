package pkg

import (
	"strings"

	"github.com/google/uuid"
)

const roomIDLength = 8

// GenerateRoomID - generates a short upper-case room code.
func GenerateRoomID() string {
	return strings.ToUpper(uuid.NewString()[:roomIDLength])
}

// GeneratePlayerID - generates a new unique player id.
func GeneratePlayerID() string {
	return uuid.NewString()
}

// GenerateConnectionID - generates an id for one websocket session.
func GenerateConnectionID() string {
	return "conn-" + uuid.NewString()
}

// NormalizeRoomID - room codes are looked up case-insensitively.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
