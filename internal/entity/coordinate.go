package entity

import "math"

// Coordinate - cell position on the unbounded plane.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func NewCoordinate(x, y int) Coordinate {
	return Coordinate{X: x, Y: y}
}

// Offset - moves the coordinate by steps*(dx, dy). Returns false if the result does not fit into int.
func (that Coordinate) Offset(dx, dy, steps int) (Coordinate, bool) {
	x, ok := shift(that.X, dx*steps)
	if !ok {
		return Coordinate{}, false
	}

	y, ok := shift(that.Y, dy*steps)
	if !ok {
		return Coordinate{}, false
	}

	return Coordinate{X: x, Y: y}, true
}

func shift(value, delta int) (int, bool) {
	if delta > 0 && value > math.MaxInt-delta {
		return 0, false
	}
	if delta < 0 && value < math.MinInt-delta {
		return 0, false
	}
	return value + delta, true
}

// saturatingAdd - like shift, but clamps to the int range instead of failing.
func saturatingAdd(value, delta int) int {
	result, ok := shift(value, delta)
	if ok {
		return result
	}
	if delta > 0 {
		return math.MaxInt
	}
	return math.MinInt
}

// Placement - mark recorded at a coordinate when a move is accepted.
type Placement struct {
	Coordinate Coordinate
	Mark       Mark
}
