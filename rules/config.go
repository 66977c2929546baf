// Package rules is the single authority on how the game plays: board
// generation, fog of war, movement, duels and round resolution. It holds no
// connections and no goroutines; callers serialize access to a Board.
package rules

import (
	"errors"
	"fmt"
)

const (
	DefaultWidth  = 100
	DefaultHeight = 50
)

var ErrInvalidConfig = errors.New("invalid rules config")

type Config struct {
	Width   int
	Height  int
	Players int

	// FloorTarget is the carved floor fraction; the wall fraction left over
	// must stay above it.
	FloorTarget float64

	ClearRadius int
	FogRadius   int

	// ActionsPerPiece caps what one piece does in one round.
	ActionsPerPiece int
	PiecesPerPlayer int
	ExitsToWin      int
}

func DefaultConfig() Config {
	return Config{
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		Players:         2,
		FloorTarget:     0.35,
		ClearRadius:     2,
		FogRadius:       4,
		ActionsPerPiece: 3,
		PiecesPerPlayer: 3,
		ExitsToWin:      3,
	}
}

// Exits is how many exits a game with this many players gets.
func (c Config) Exits() int {
	return 2*c.Players + 1
}

func (c Config) Validate() error {
	switch {
	case c.Width < 8 || c.Height < 8:
		return fmt.Errorf("%w: board %dx%d is smaller than 8x8", ErrInvalidConfig, c.Width, c.Height)
	case c.Players < 2:
		return fmt.Errorf("%w: need at least 2 players, got %d", ErrInvalidConfig, c.Players)
	case c.FloorTarget <= 0 || c.FloorTarget >= 0.5:
		return fmt.Errorf("%w: floor target %v outside (0, 0.5)", ErrInvalidConfig, c.FloorTarget)
	case c.ClearRadius < 0 || c.FogRadius < c.ClearRadius:
		return fmt.Errorf("%w: clear radius %d must be within fog radius %d", ErrInvalidConfig, c.ClearRadius, c.FogRadius)
	case c.ActionsPerPiece < 1:
		return fmt.Errorf("%w: actions per piece %d", ErrInvalidConfig, c.ActionsPerPiece)
	case c.PiecesPerPlayer < 1 || c.PiecesPerPlayer > 3:
		return fmt.Errorf("%w: pieces per player %d outside 1..3", ErrInvalidConfig, c.PiecesPerPlayer)
	case c.ExitsToWin < 1:
		return fmt.Errorf("%w: exits to win %d", ErrInvalidConfig, c.ExitsToWin)
	}
	return nil
}
