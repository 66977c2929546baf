package rules

import (
	"github.com/zucenko/ghostdelve/model"
)

// TryMove moves a real piece one step. The piece stays behind as a ghost and
// a new real copy appears at to, unless to holds the piece's own ghost, in
// which case the pair collapses back to a single real piece there. Entering
// an exit takes the piece off the board for good and closes the exit.
func (e *Engine) TryMove(b *model.Board, player *model.Player, piece *model.Piece, to model.Position) bool {
	if piece == nil || piece.Ghost || player == nil || piece.Owner != player.Name {
		return false
	}
	if !b.InBounds(to) || !model.IsNeighbor(piece.Position, to) {
		return false
	}

	dest := b.Tile(to)
	if dest.Type == model.EXIT {
		e.exit(b, player, piece, to)
		return true
	}
	if !dest.IsFloor() {
		return false
	}

	for _, p := range dest.Pieces {
		if p.Owner == piece.Owner && !p.Ghost {
			return false
		}
	}
	for _, p := range dest.Pieces {
		if p.Ghost && p.Same(piece) {
			p.Ghost = false
			b.RemovePiece(piece)
			return true
		}
	}

	piece.Ghost = true
	b.AddPiece(&model.Piece{
		Number:   piece.Number,
		Position: to,
		Owner:    piece.Owner,
		Color:    piece.Color,
	})
	return true
}

func (e *Engine) exit(b *model.Board, player *model.Player, piece *model.Piece, at model.Position) {
	b.RemovePiece(piece)
	b.Tile(at).Type = model.CLOSED_EXIT
	player.PiecesExited++
	e.checkRace(b, player)
}

// TryBreakWall lets a ghost, a piece caught mid-move, knock down an adjacent
// wall. The same structural check as generation applies.
func (e *Engine) TryBreakWall(b *model.Board, piece *model.Piece, at model.Position) bool {
	if piece == nil || !piece.Ghost {
		return false
	}
	if !b.InBounds(at) || !model.IsNeighbor(piece.Position, at) {
		return false
	}
	t := b.Tile(at)
	if t.Type != model.WALL || !b.CanBreakWall(at) {
		return false
	}
	t.BreakWall()
	return true
}

// checkRace ends the game once player has taken enough pieces out.
func (e *Engine) checkRace(b *model.Board, player *model.Player) bool {
	if player.PiecesExited < e.Config.ExitsToWin {
		return false
	}
	b.GameOver = true
	player.Board.GameOver = true
	return true
}
