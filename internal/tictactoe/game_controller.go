package tictactoe

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/board"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
)

var ErrInvalidState = errors.New("invalid game state")

// directions are checked in this order, the first one with a long enough run wins.
var directions = [4][2]int{
	{1, 0},  // horizontal
	{0, 1},  // vertical
	{1, 1},  // diagonal
	{1, -1}, // anti-diagonal
}

type occupants interface {
	OccupantAt(coord entity.Coordinate) (entity.Mark, bool)
}

// GameController - owns the state of one game. It is not safe for concurrent use;
// callers serialize access to it.
type GameController struct {
	rules  Rules
	board  *board.Board
	turn   entity.Mark
	win    *entity.WinRecord
	bounds entity.Bounds
}

func NewGameController(rules Rules) *GameController {
	controller := &GameController{rules: rules}
	controller.reset()

	return controller
}

// RestoreGameController - rebuilds a controller from a previously taken snapshot.
func RestoreGameController(rules Rules, snapshot entity.Snapshot) (*GameController, error) {
	if !snapshot.Turn().Valid() {
		return nil, fmt.Errorf("%w: turn %q", ErrInvalidState, snapshot.Turn())
	}

	bounds := snapshot.Bounds()
	if !bounds.Valid() {
		return nil, fmt.Errorf("%w: bounds %+v", ErrInvalidState, bounds)
	}

	b := board.New()
	for _, placement := range snapshot.Placements() {
		if !placement.Mark.Valid() {
			return nil, fmt.Errorf("%w: mark %q at (%d, %d)", ErrInvalidState,
				placement.Mark, placement.Coordinate.X, placement.Coordinate.Y)
		}

		if _, ok := b.OccupantAt(placement.Coordinate); ok {
			return nil, fmt.Errorf("%w: cell (%d, %d) placed twice", ErrInvalidState,
				placement.Coordinate.X, placement.Coordinate.Y)
		}

		if !bounds.Contains(placement.Coordinate) {
			return nil, fmt.Errorf("%w: cell (%d, %d) outside of bounds", ErrInvalidState,
				placement.Coordinate.X, placement.Coordinate.Y)
		}

		b.Place(placement.Coordinate, placement.Mark)
	}

	controller := &GameController{
		rules:  rules,
		board:  b,
		turn:   snapshot.Turn(),
		bounds: bounds,
	}

	if record, ok := snapshot.Win(); ok {
		if err := validateWin(b, record, rules.WinLength); err != nil {
			return nil, err
		}
		controller.win = &record
	}

	return controller, nil
}

func validateWin(b *board.Board, record entity.WinRecord, winLength int) error {
	if !record.Mark.Valid() {
		return fmt.Errorf("%w: winner %q", ErrInvalidState, record.Mark)
	}

	if len(record.Line) != winLength {
		return fmt.Errorf("%w: winning line of %d cells, want %d", ErrInvalidState, len(record.Line), winLength)
	}

	if !isStraightLine(record.Line) {
		return fmt.Errorf("%w: winning cells are not consecutive", ErrInvalidState)
	}

	for _, coord := range record.Line {
		if mark, ok := b.OccupantAt(coord); !ok || mark != record.Mark {
			return fmt.Errorf("%w: winning cell (%d, %d) is not held by %s", ErrInvalidState,
				coord.X, coord.Y, record.Mark)
		}
	}

	return nil
}

// isStraightLine - reports whether every cell is one step from the previous one along the same direction.
func isStraightLine(line []entity.Coordinate) bool {
	if len(line) < 2 {
		return true
	}

	for _, dir := range directions {
		for _, sign := range [2]int{1, -1} {
			if followsDirection(line, sign*dir[0], sign*dir[1]) {
				return true
			}
		}
	}

	return false
}

func followsDirection(line []entity.Coordinate, dx, dy int) bool {
	for i := 1; i < len(line); i++ {
		next, ok := line[i-1].Offset(dx, dy, 1)
		if !ok || next != line[i] {
			return false
		}
	}

	return true
}

// MakeTurn - places the mark of the player to move at coord.
func (that *GameController) MakeTurn(coord entity.Coordinate) (entity.Snapshot, error) {
	if that.win != nil {
		return entity.Snapshot{}, apperror.ErrGameFinished
	}

	if _, ok := that.board.OccupantAt(coord); ok {
		return entity.Snapshot{}, fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOccupied, coord.X, coord.Y)
	}

	mark := that.turn
	that.board.Place(coord, mark)

	if line := findWinningLine(that.board, coord, mark, that.rules.WinLength); line != nil {
		that.win = &entity.WinRecord{Mark: mark, Line: line}
	} else {
		that.turn = mark.Other()
	}

	that.bounds = that.bounds.Expand(coord, that.rules.BoundsMargin)

	return that.Snapshot(), nil
}

// Reset - drops the current game and starts a new one.
func (that *GameController) Reset() entity.Snapshot {
	that.reset()

	return that.Snapshot()
}

func (that *GameController) reset() {
	that.board = board.New()
	that.turn = entity.PlayerX
	that.win = nil
	that.bounds = entity.DefaultBounds(that.rules.InitialHalfWidth)
}

func (that *GameController) Snapshot() entity.Snapshot {
	return entity.NewSnapshot(that.board.Placements(), that.turn, that.win, that.bounds)
}

func (that *GameController) OccupantAt(coord entity.Coordinate) (entity.Mark, bool) {
	return that.board.OccupantAt(coord)
}

// findWinningLine - looks for a run of at least winLength marks through from.
// Returns the first winLength cells of the run in line order, nil if there is no win.
func findWinningLine(cells occupants, from entity.Coordinate, mark entity.Mark, winLength int) []entity.Coordinate {
	for _, dir := range directions {
		forward := walk(cells, from, mark, dir[0], dir[1], winLength-1)
		backward := walk(cells, from, mark, -dir[0], -dir[1], winLength-1)

		if len(forward)+len(backward)+1 < winLength {
			continue
		}

		slices.Reverse(backward)
		run := make([]entity.Coordinate, 0, len(forward)+len(backward)+1)
		run = append(run, backward...)
		run = append(run, from)
		run = append(run, forward...)

		return run[:winLength]
	}

	return nil
}

// walk - collects up to limit consecutive cells held by mark, starting next to from.
func walk(cells occupants, from entity.Coordinate, mark entity.Mark, dx, dy, limit int) []entity.Coordinate {
	var line []entity.Coordinate

	for step := 1; step <= limit; step++ {
		coord, ok := from.Offset(dx, dy, step)
		if !ok {
			break
		}

		if occupant, ok := cells.OccupantAt(coord); !ok || occupant != mark {
			break
		}

		line = append(line, coord)
	}

	return line
}
