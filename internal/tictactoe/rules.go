package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
)

// Rules - tunables of a game. InitialHalfWidth and BoundsMargin are independent of each other.
type Rules struct {
	WinLength        int
	InitialHalfWidth int
	BoundsMargin     int
}

func DefaultRules() Rules {
	return Rules{
		WinLength:        entity.DefaultWinLength,
		InitialHalfWidth: entity.DefaultInitialHalfWidth,
		BoundsMargin:     entity.DefaultBoundsMargin,
	}
}

func (that Rules) Validate() error {
	if that.WinLength < 2 {
		return fmt.Errorf("%w: win length must be at least 2, got %d", apperror.ErrInvalidConfig, that.WinLength)
	}

	if that.InitialHalfWidth < 0 {
		return fmt.Errorf("%w: initial half width must not be negative, got %d", apperror.ErrInvalidConfig, that.InitialHalfWidth)
	}

	if that.BoundsMargin < 0 {
		return fmt.Errorf("%w: bounds margin must not be negative, got %d", apperror.ErrInvalidConfig, that.BoundsMargin)
	}

	return nil
}
