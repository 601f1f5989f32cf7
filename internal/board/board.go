// Package board keeps the placements of a single game on the unbounded plane.
package board

import (
	"fmt"
	"slices"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
)

// Board - sparse board. Lookups and inserts are O(1) however far apart the cells are.
type Board struct {
	cells map[entity.Coordinate]entity.Mark
	order []entity.Placement
}

func New() *Board {
	return &Board{
		cells: make(map[entity.Coordinate]entity.Mark),
	}
}

// OccupantAt - returns the mark at coord, false if the cell is empty.
func (that *Board) OccupantAt(coord entity.Coordinate) (entity.Mark, bool) {
	mark, ok := that.cells[coord]
	return mark, ok
}

// Place - records a new placement. The caller must check the cell is empty first.
func (that *Board) Place(coord entity.Coordinate, mark entity.Mark) {
	if existing, ok := that.cells[coord]; ok {
		panic(fmt.Sprintf("board: cell (%d, %d) is already taken by %s", coord.X, coord.Y, existing))
	}

	that.cells[coord] = mark
	that.order = append(that.order, entity.Placement{Coordinate: coord, Mark: mark})
}

// Placements - all placements in insertion order.
func (that *Board) Placements() []entity.Placement {
	return slices.Clone(that.order)
}

func (that *Board) Len() int {
	return len(that.order)
}
