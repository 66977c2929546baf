package client

import (
	"math/rand"

	"github.com/zucenko/ghostdelve/model"
)

// Wander plans a turn from a private board: every real piece of name walks
// up to actions steps over floor it can see, never revisiting a square in
// the same turn, and steps onto an open exit as soon as one is adjacent.
func Wander(b *model.Board, name string, actions int, rng *rand.Rand) *model.PlayerTurn {
	turn := model.NewPlayerTurn(name)
	pieces := b.Pieces(name, false)

	taken := make(map[model.Position]bool, len(pieces))
	for _, p := range pieces {
		taken[p.Position] = true
	}

	for _, p := range pieces {
		pos := p.Position
		visited := map[model.Position]bool{pos: true}
		for step := 0; step < actions; step++ {
			var exit *model.Position
			options := make([]model.Position, 0, 4)
			for _, n := range b.Neighbors(pos) {
				t := b.Tile(n)
				if t.Type == model.EXIT {
					n := n
					exit = &n
					break
				}
				if !t.IsFloor() || t.Type == model.CLOSED_EXIT || visited[n] || taken[n] {
					continue
				}
				options = append(options, n)
			}
			if exit != nil {
				turn.AddMove(p.Number, pos, *exit)
				delete(taken, p.Position)
				break
			}
			if len(options) == 0 {
				break
			}
			next := options[rng.Intn(len(options))]
			turn.AddMove(p.Number, pos, next)
			visited[next] = true
			pos = next
		}
		if pos != p.Position {
			delete(taken, p.Position)
			taken[pos] = true
		}
	}
	return turn
}
