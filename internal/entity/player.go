package entity

type Seat int

const (
	NoSeat  Seat = 0
	SeatOne Seat = 1
	SeatTwo Seat = 2
)

func (that Seat) Valid() bool {
	return that == SeatOne || that == SeatTwo
}

func (that Seat) Opponent() Seat {
	switch that {
	case SeatOne:
		return SeatTwo
	case SeatTwo:
		return SeatOne
	default:
		return NoSeat
	}
}

// Result is the outcome of a game. On the wire a draw is 0 and a win is the winning seat.
type Result int

const (
	ResultNone    Result = -1
	ResultDraw    Result = 0
	ResultSeatOne Result = 1
	ResultSeatTwo Result = 2
)

func WinFor(seat Seat) Result {
	return Result(seat)
}

// Player is the public view of a room participant.
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PlayerNumber Seat   `json:"playerNumber"`
}
