package service

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

const centerWeight = 2

// Run scores, indexed by run length capped at four.
var (
	attackScores  = [5]int{0, 0, 100, 1000, 50000}
	defenceScores = [5]int{0, 0, 50, 500, 10000}
)

type BotService interface {
	BestMove(board *entity.Board, seat entity.Seat) (entity.Position, error)
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

// BestMove - picks the empty cell with the highest greedy score for seat.
// Ties go to the first cell in row-major order.
func (that *botService) BestMove(board *entity.Board, seat entity.Seat) (entity.Position, error) {
	if !seat.Valid() {
		return entity.Position{}, fmt.Errorf("%w: %d", entity.ErrInvalidSeat, seat)
	}

	if board.IsFull() {
		return entity.Position{}, ErrNoAvailableMoves
	}

	best := entity.Position{Row: -1, Col: -1}
	bestScore := -1

	for row := 0; row < entity.BoardSize; row++ {
		for col := 0; col < entity.BoardSize; col++ {
			if board.At(row, col) != entity.NoSeat {
				continue
			}

			if score := Evaluate(board, row, col, seat); score > bestScore {
				bestScore = score
				best = entity.Position{Row: row, Col: col}
			}
		}
	}

	return best, nil
}

// Evaluate - scores an empty cell for seat: own lines it extends, opponent lines it blocks,
// and closeness to the center.
func Evaluate(board *entity.Board, row, col int, seat entity.Seat) int {
	opponent := seat.Opponent()
	score := 0

	for _, dir := range entity.Directions {
		own := board.Run(row, col, dir[0], dir[1], seat) + board.Run(row, col, -dir[0], -dir[1], seat)
		theirs := board.Run(row, col, dir[0], dir[1], opponent) + board.Run(row, col, -dir[0], -dir[1], opponent)

		score += attackScores[min(own, 4)]
		score += defenceScores[min(theirs, 4)]
	}

	center := entity.BoardSize / 2
	distance := abs(row-center) + abs(col-center)
	score += (entity.BoardSize - distance) * centerWeight

	return score
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
