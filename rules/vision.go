package rules

import (
	"github.com/zucenko/ghostdelve/model"
)

// Within returns every in-bounds tile at Chebyshev distance <= radius of p.
func Within(b *model.Board, p model.Position, radius int) []model.Position {
	res := make([]model.Position, 0, (2*radius+1)*(2*radius+1))
	for y := p.Y - radius; y <= p.Y+radius; y++ {
		for x := p.X - radius; x <= p.X+radius; x++ {
			o := model.Position{X: x, Y: y}
			if b.InBounds(o) {
				res = append(res, o)
			}
		}
	}
	return res
}

// Sight is what a single piece at p reveals: clear tiles and the wider fog
// ring. clear is always a subset of fog.
func (e *Engine) Sight(b *model.Board, p model.Position) (clear, fog []model.Position) {
	return Within(b, p, e.Config.ClearRadius), Within(b, p, e.Config.FogRadius)
}

// Recompute rebuilds the player's private board from the truth. Nothing
// precise survives from the previous call: old clear tiles decay to their
// fog category, then the player's pieces (ghosts included) re-reveal what
// they see. Enemy pieces are only copied onto tiles seen clearly.
func (e *Engine) Recompute(player *model.Player, truth *model.Board) {
	view := player.Board

	view.ClearPieces()
	for _, p := range truth.Pieces(player.Name, true) {
		own := *p
		view.AddPiece(&own)
	}

	for _, row := range view.Tiles {
		for _, t := range row {
			t.Type = t.Type.Fog()
		}
	}

	clear := make(map[model.Position]struct{})
	fog := make(map[model.Position]struct{})
	for _, src := range view.Pieces(player.Name, true) {
		c, f := e.Sight(truth, src.Position)
		for _, p := range c {
			clear[p] = struct{}{}
		}
		for _, p := range f {
			fog[p] = struct{}{}
		}
	}

	for p := range fog {
		if _, ok := clear[p]; ok {
			view.Tile(p).Type = truth.Tile(p).Type
		} else {
			view.Tile(p).Type = truth.Tile(p).Type.Fog()
		}
	}

	for y := 0; y < view.Height; y++ {
		for x := 0; x < view.Width; x++ {
			p := model.Position{X: x, Y: y}
			if !view.Tile(p).IsClear() {
				continue
			}
			for _, o := range truth.Tile(p).Pieces {
				if o.Owner != player.Name {
					enemy := *o
					view.AddPiece(&enemy)
				}
			}
		}
	}
}
