package apperror

import "errors"

var (
	ErrRoomFull          = errors.New("room is full")
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrIllegalPlacement  = errors.New("illegal placement")
	ErrMalformedEnvelope = errors.New("malformed message")
	ErrUnknownCommand    = errors.New("unknown message type")
	ErrNotInRoom         = errors.New("you are not in a room")
	ErrAlreadyInRoom     = errors.New("you are already in a room")
)

const internalErrorMessage = "internal server error"

var surfaced = []error{
	ErrRoomFull,
	ErrRoomNotFound,
	ErrNotYourTurn,
	ErrGameNotInProgress,
	ErrIllegalPlacement,
	ErrMalformedEnvelope,
	ErrUnknownCommand,
	ErrNotInRoom,
	ErrAlreadyInRoom,
}

// Message - returns the text sent to a client for a rejected command.
// Errors outside the surfaced set are reported as a generic internal error.
func Message(err error) string {
	for _, target := range surfaced {
		if errors.Is(err, target) {
			return target.Error()
		}
	}

	return internalErrorMessage
}
