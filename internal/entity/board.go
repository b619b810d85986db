package entity

import (
	"errors"
	"fmt"
)

const (
	BoardSize = 15
	WinLength = 5
)

var (
	ErrOutOfBounds   = errors.New("cell is out of bounds")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrInvalidSeat   = errors.New("invalid seat")
	ErrInvalidBoard  = errors.New("invalid board")
	errNotOnTheBoard = fmt.Errorf("%w: coordinates must be in [0,%d)", ErrOutOfBounds, BoardSize)
)

// Directions are horizontal, vertical, diagonal and anti-diagonal.
var Directions = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Board is a square gomoku grid. The zero value is an empty board.
type Board struct {
	cells  [BoardSize][BoardSize]Seat
	filled int
}

func NewBoard() *Board {
	return &Board{}
}

// BoardFromCells - builds a board from a snapshot of seat numbers.
func BoardFromCells(cells [][]int) (*Board, error) {
	if len(cells) != BoardSize {
		return nil, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidBoard, BoardSize, len(cells))
	}

	board := NewBoard()
	for row, line := range cells {
		if len(line) != BoardSize {
			return nil, fmt.Errorf("%w: row %d has %d cells", ErrInvalidBoard, row, len(line))
		}

		for col, value := range line {
			seat := Seat(value)
			if seat == NoSeat {
				continue
			}

			if !seat.Valid() {
				return nil, fmt.Errorf("%w: cell (%d,%d) holds %d", ErrInvalidBoard, row, col, value)
			}

			board.cells[row][col] = seat
			board.filled++
		}
	}

	return board, nil
}

func InBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

// Place - puts a stone of the given seat on an empty cell.
func (that *Board) Place(row, col int, seat Seat) error {
	if !InBounds(row, col) {
		return fmt.Errorf("%w: (%d,%d)", errNotOnTheBoard, row, col)
	}

	if !seat.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}

	if that.cells[row][col] != NoSeat {
		return fmt.Errorf("%w: (%d,%d)", ErrCellOccupied, row, col)
	}

	that.cells[row][col] = seat
	that.filled++

	return nil
}

// At - returns the owner of a cell, NoSeat for empty or out of bounds cells.
func (that *Board) At(row, col int) Seat {
	if !InBounds(row, col) {
		return NoSeat
	}

	return that.cells[row][col]
}

func (that *Board) IsFull() bool {
	return that.filled == BoardSize*BoardSize
}

func (that *Board) Filled() int {
	return that.filled
}

// CheckWin - reports whether the stone just placed at (row, col) completes a run of WinLength or more.
func (that *Board) CheckWin(row, col int, seat Seat) bool {
	if that.At(row, col) != seat || seat == NoSeat {
		return false
	}

	for _, dir := range Directions {
		run := 1 + that.Run(row, col, dir[0], dir[1], seat) + that.Run(row, col, -dir[0], -dir[1], seat)
		if run >= WinLength {
			return true
		}
	}

	return false
}

// Run - counts consecutive stones of seat starting next to (row, col) and stepping by (dRow, dCol).
// The cell itself is not counted.
func (that *Board) Run(row, col, dRow, dCol int, seat Seat) int {
	count := 0
	for r, c := row+dRow, col+dCol; InBounds(r, c) && that.cells[r][c] == seat; r, c = r+dRow, c+dCol {
		count++
	}

	return count
}

func (that *Board) Reset() {
	that.cells = [BoardSize][BoardSize]Seat{}
	that.filled = 0
}

// Cells - returns a copy of the grid as seat numbers, 0 for empty.
func (that *Board) Cells() [][]int {
	out := make([][]int, BoardSize)
	for row := range that.cells {
		out[row] = make([]int, BoardSize)
		for col, seat := range that.cells[row] {
			out[row][col] = int(seat)
		}
	}

	return out
}
