package entity

// Bounds - advisory rectangle of the board the view layer should render.
// The rule engine never uses it to restrict moves.
type Bounds struct {
	MinX int
	MaxX int
	MinY int
	MaxY int
}

// DefaultBounds - square of the given half width centered at the origin.
func DefaultBounds(halfWidth int) Bounds {
	return Bounds{
		MinX: -halfWidth,
		MaxX: halfWidth,
		MinY: -halfWidth,
		MaxY: halfWidth,
	}
}

// Expand - grows the rectangle so it holds coord with margin cells on every side. Never shrinks.
func (that Bounds) Expand(coord Coordinate, margin int) Bounds {
	return Bounds{
		MinX: min(that.MinX, saturatingAdd(coord.X, -margin)),
		MaxX: max(that.MaxX, saturatingAdd(coord.X, margin)),
		MinY: min(that.MinY, saturatingAdd(coord.Y, -margin)),
		MaxY: max(that.MaxY, saturatingAdd(coord.Y, margin)),
	}
}

func (that Bounds) Contains(coord Coordinate) bool {
	return coord.X >= that.MinX && coord.X <= that.MaxX &&
		coord.Y >= that.MinY && coord.Y <= that.MaxY
}

func (that Bounds) ContainsBounds(other Bounds) bool {
	return other.MinX >= that.MinX && other.MaxX <= that.MaxX &&
		other.MinY >= that.MinY && other.MaxY <= that.MaxY
}

func (that Bounds) Valid() bool {
	return that.MinX <= that.MaxX && that.MinY <= that.MaxY
}
