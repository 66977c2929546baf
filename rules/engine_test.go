package rules

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zucenko/ghostdelve/model"
)

// scriptedDie rolls the given values in order.
type scriptedDie struct {
	t      *testing.T
	values []int
}

func (d *scriptedDie) Roll() int {
	require.NotEmpty(d.t, d.values, "die rolled more often than scripted")
	v := d.values[0]
	d.values = d.values[1:]
	return v
}

func newTestEngine(seed int64) *Engine {
	return NewEngine(DefaultConfig(), rand.New(rand.NewSource(seed)))
}

// newTestGame seats the named players on an open board of the given kind
// without any pieces.
func newTestGame(w, h int, base model.TileType, names ...string) *Game {
	g := &Game{Board: model.NewBoard(w, h, base)}
	for i, n := range names {
		info := model.PlayerInfo{Name: n, Color: model.Color{uint8(100 * i), 0, 0}}
		g.Players = append(g.Players, model.NewPlayer(info, model.Position{}, w, h))
	}
	return g
}

func put(b *model.Board, owner string, number int, x, y int, ghost bool) *model.Piece {
	p := &model.Piece{Number: number, Position: model.Position{X: x, Y: y}, Owner: owner, Ghost: ghost}
	b.AddPiece(p)
	return p
}
