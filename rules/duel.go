package rules

import (
	"github.com/zucenko/ghostdelve/model"
)

type Roll struct {
	Owner  string
	Number int
	Ghost  bool
	Value  int
	Lost   bool
}

// Duel records one contested tile.
type Duel struct {
	At    model.Position
	Rolls []Roll
}

// Losers returns the owners that lost this duel.
func (d Duel) Losers() []string {
	res := make([]string, 0, len(d.Rolls))
	for _, r := range d.Rolls {
		if r.Lost {
			res = append(res, r.Owner)
		}
	}
	return res
}

// representative picks who fights for owner on a tile: a real piece over a
// ghost, then the lowest number.
func representative(pieces []*model.Piece, owner string) *model.Piece {
	var best *model.Piece
	for _, p := range pieces {
		if p.Owner != owner {
			continue
		}
		switch {
		case best == nil:
			best = p
		case best.Ghost && !p.Ghost:
			best = p
		case best.Ghost == p.Ghost && p.Number < best.Number:
			best = p
		}
	}
	return best
}

// ResolveDuels rolls a die for every owner on each floor tile shared by more
// than one owner. Everyone tied at the lowest roll loses that piece, ghost and
// real copies alike, wherever they stand.
func (e *Engine) ResolveDuels(b *model.Board) []Duel {
	duels := make([]Duel, 0)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			at := model.Position{X: x, Y: y}
			t := b.Tile(at)
			if !t.IsFloor() || len(t.Pieces) < 2 {
				continue
			}
			owners := make([]string, 0, len(t.Pieces))
			seen := make(map[string]struct{})
			for _, p := range t.Pieces {
				if _, ok := seen[p.Owner]; !ok {
					seen[p.Owner] = struct{}{}
					owners = append(owners, p.Owner)
				}
			}
			if len(owners) < 2 {
				continue
			}

			d := Duel{At: at, Rolls: make([]Roll, 0, len(owners))}
			lowest := 7
			for _, owner := range owners {
				rep := representative(t.Pieces, owner)
				r := Roll{Owner: owner, Number: rep.Number, Ghost: rep.Ghost, Value: e.die.Roll()}
				if r.Value < lowest {
					lowest = r.Value
				}
				d.Rolls = append(d.Rolls, r)
			}
			for i := range d.Rolls {
				if d.Rolls[i].Value == lowest {
					d.Rolls[i].Lost = true
					b.KillPiece(d.Rolls[i].Owner, d.Rolls[i].Number)
				}
			}
			duels = append(duels, d)
		}
	}
	return duels
}
