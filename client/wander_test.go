package client

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zucenko/ghostdelve/model"
)

// corridor is rock with floor along row 1 from x=1 to x=w-2.
func corridor(w int) *model.Board {
	b := model.NewBoard(w, 3, model.WALL)
	for x := 1; x < w-1; x++ {
		b.Tile(model.Position{X: x, Y: 1}).Type = model.FLOOR
	}
	return b
}

func TestWanderStaysOnFloor(t *testing.T) {
	b := corridor(10)
	b.AddPiece(&model.Piece{Number: 1, Position: model.Position{X: 1, Y: 1}, Owner: "ann"})

	turn := Wander(b, "ann", 3, rand.New(rand.NewSource(1)))
	assert.Equal(t, []model.Action{
		{Type: model.MOVE, From: model.Position{X: 1, Y: 1}, To: model.Position{X: 2, Y: 1}},
		{Type: model.MOVE, From: model.Position{X: 2, Y: 1}, To: model.Position{X: 3, Y: 1}},
		{Type: model.MOVE, From: model.Position{X: 3, Y: 1}, To: model.Position{X: 4, Y: 1}},
	}, turn.PiecesActions[1])
	assert.Equal(t, "ann", turn.PlayerName)
}

func TestWanderTakesExit(t *testing.T) {
	b := corridor(10)
	b.Tile(model.Position{X: 1, Y: 1}).Type = model.EXIT
	b.AddPiece(&model.Piece{Number: 2, Position: model.Position{X: 2, Y: 1}, Owner: "ann"})

	turn := Wander(b, "ann", 3, rand.New(rand.NewSource(1)))
	require.Len(t, turn.PiecesActions[2], 1)
	assert.Equal(t, model.Position{X: 1, Y: 1}, turn.PiecesActions[2][0].To)
}

func TestWanderAvoidsOwnPieces(t *testing.T) {
	b := corridor(6)
	b.AddPiece(&model.Piece{Number: 1, Position: model.Position{X: 1, Y: 1}, Owner: "ann"})
	b.AddPiece(&model.Piece{Number: 2, Position: model.Position{X: 2, Y: 1}, Owner: "ann"})
	b.AddPiece(&model.Piece{Number: 1, Position: model.Position{X: 4, Y: 1}, Owner: "bob"})

	turn := Wander(b, "ann", 3, rand.New(rand.NewSource(1)))
	assert.Empty(t, turn.PiecesActions[1], "boxed in by piece 2")
	assert.Equal(t, 2, len(turn.PiecesActions[2]))
	assert.Equal(t, model.Position{X: 4, Y: 1}, turn.PiecesActions[2][1].To, "enemies do not block")
}
