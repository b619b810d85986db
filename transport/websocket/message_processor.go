package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	actionCreateRoom  = "create_room"
	actionJoinRoom    = "join_room"
	actionMakeMove    = "make_move"
	actionResetGame   = "reset_game"
	actionSendMessage = "send_message"
)

var (
	errBinaryFrame     = fmt.Errorf("%w: text frames only", apperror.ErrMalformedEnvelope)
	errMessageTooLarge = fmt.Errorf("%w: message too large", apperror.ErrMalformedEnvelope)
)

// Message is an inbound envelope. Fields besides the type are decoded by the handler.
type Message struct {
	Type string `json:"type"`
	Raw  []byte `json:"-"`
}

type createRoomRequest struct {
	PlayerName string `json:"playerName"`
}

type joinRoomRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type makeMoveRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

// decodeMessage - parses the envelope type. Anything that is not a JSON object with a type is malformed.
func decodeMessage(data []byte) (*Message, error) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrMalformedEnvelope, err) //nolint: errorlint // decoder errors stay internal
	}

	if message.Type == "" {
		return nil, fmt.Errorf("%w: missing type", apperror.ErrMalformedEnvelope)
	}

	message.Raw = data

	return &message, nil
}

// decodePayload - reads the handler specific fields of an envelope.
func decodePayload(message *Message, payload any) error {
	if err := json.Unmarshal(message.Raw, payload); err != nil {
		return fmt.Errorf("%w: %s: %v", apperror.ErrMalformedEnvelope, message.Type, err) //nolint: errorlint // decoder errors stay internal
	}

	return nil
}
