package entity

import (
	"errors"
	"slices"
)

const (
	DefaultWinLength        = 5
	DefaultInitialHalfWidth = 10
	DefaultBoundsMargin     = 3
)

var ErrUnknownMark = errors.New("unknown mark")

// WinRecord - the winning mark and the line that completed the game.
type WinRecord struct {
	Mark Mark
	Line []Coordinate
}

// Snapshot - immutable view of a game. Every accessor hands out copies, so a
// snapshot stays valid after the game it was taken from moves on.
type Snapshot struct {
	placements []Placement
	occupants  map[Coordinate]Mark
	turn       Mark
	win        *WinRecord
	bounds     Bounds
}

// NewSnapshot - builds a snapshot from its parts. The caller keeps ownership of the passed slices.
func NewSnapshot(placements []Placement, turn Mark, win *WinRecord, bounds Bounds) Snapshot {
	occupants := make(map[Coordinate]Mark, len(placements))
	for _, placement := range placements {
		occupants[placement.Coordinate] = placement.Mark
	}

	var winCopy *WinRecord
	if win != nil {
		winCopy = &WinRecord{
			Mark: win.Mark,
			Line: slices.Clone(win.Line),
		}
	}

	var placementsCopy []Placement
	if len(placements) > 0 {
		placementsCopy = slices.Clone(placements)
	}

	return Snapshot{
		placements: placementsCopy,
		occupants:  occupants,
		turn:       turn,
		win:        winCopy,
		bounds:     bounds,
	}
}

// NewGameSnapshot - state of a game nobody has moved in yet.
func NewGameSnapshot(initialHalfWidth int) Snapshot {
	return NewSnapshot(nil, PlayerX, nil, DefaultBounds(initialHalfWidth))
}

// Placements - every accepted move in the order it was made.
func (that Snapshot) Placements() []Placement {
	return slices.Clone(that.placements)
}

func (that Snapshot) OccupantAt(coord Coordinate) (Mark, bool) {
	mark, ok := that.occupants[coord]
	return mark, ok
}

// Turn - mark that moves next. Once the game is over it keeps the winner's mark.
func (that Snapshot) Turn() Mark {
	return that.turn
}

func (that Snapshot) Win() (WinRecord, bool) {
	if that.win == nil {
		return WinRecord{}, false
	}

	return WinRecord{
		Mark: that.win.Mark,
		Line: slices.Clone(that.win.Line),
	}, true
}

func (that Snapshot) IsOver() bool {
	return that.win != nil
}

func (that Snapshot) Bounds() Bounds {
	return that.bounds
}

func (that Snapshot) MoveCount() int {
	return len(that.placements)
}
