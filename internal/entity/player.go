package entity

import "fmt"

// Mark - symbol a player puts on the board. An unoccupied cell has no mark at all.
type Mark string

const (
	PlayerX Mark = "X"
	PlayerO Mark = "O"
)

// Other - returns the opponent's mark.
func (that Mark) Other() Mark {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Mark) Valid() bool {
	return that == PlayerX || that == PlayerO
}

// ParseMark - converts a wire value into a Mark.
func ParseMark(value string) (Mark, error) {
	mark := Mark(value)
	if !mark.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMark, value)
	}

	return mark, nil
}
