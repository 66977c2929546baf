package model

var orthogonal = [4]Position{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
var diagonals = [4]Position{{1, -1}, {1, 1}, {-1, 1}, {-1, -1}}

func NewBoard(width, height int, base TileType) *Board {
	tiles := make([][]*Tile, height)
	for y := range tiles {
		tiles[y] = make([]*Tile, width)
		for x := range tiles[y] {
			tiles[y][x] = &Tile{Type: base}
		}
	}
	return &Board{Width: width, Height: height, Tiles: tiles}
}

// NewPlayer creates a player whose private board starts fully UNKNOWN.
func NewPlayer(info PlayerInfo, spawn Position, width, height int) *Player {
	return &Player{
		Name:  info.Name,
		Color: info.Color,
		Spawn: spawn,
		Board: NewBoard(width, height, UNKNOWN),
	}
}

func (b *Board) InBounds(p Position) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

func (b *Board) Tile(p Position) *Tile {
	return b.Tiles[p.Y][p.X]
}

// Neighbors returns the in-bounds orthogonal neighbors of p.
func (b *Board) Neighbors(p Position) []Position {
	return b.around(p, false)
}

// Neighbors8 returns the in-bounds orthogonal and diagonal neighbors of p.
func (b *Board) Neighbors8(p Position) []Position {
	return b.around(p, true)
}

func (b *Board) around(p Position, withDiagonals bool) []Position {
	res := make([]Position, 0, 8)
	for _, d := range orthogonal {
		n := Position{p.X + d.X, p.Y + d.Y}
		if b.InBounds(n) {
			res = append(res, n)
		}
	}
	if withDiagonals {
		for _, d := range diagonals {
			n := Position{p.X + d.X, p.Y + d.Y}
			if b.InBounds(n) {
				res = append(res, n)
			}
		}
	}
	return res
}

// IsNeighbor reports whether to is one orthogonal step from from.
func IsNeighbor(from, to Position) bool {
	dx, dy := to.X-from.X, to.Y-from.Y
	return dx*dx+dy*dy == 1
}

// CanBreakWall refuses the outer border and any break that would complete a
// 2x2 block of floor, which keeps corridors one tile wide.
func (b *Board) CanBreakWall(p Position) bool {
	if !b.InBounds(p) {
		return false
	}
	if p.X == 0 || p.Y == 0 || p.X == b.Width-1 || p.Y == b.Height-1 {
		return false
	}
	for _, d := range diagonals {
		if b.Tile(Position{p.X + d.X, p.Y}).IsFloor() &&
			b.Tile(Position{p.X, p.Y + d.Y}).IsFloor() &&
			b.Tile(Position{p.X + d.X, p.Y + d.Y}).IsFloor() {
			return false
		}
	}
	return true
}

// Count returns how many tiles are of type t.
func (b *Board) Count(t TileType) int {
	n := 0
	for _, row := range b.Tiles {
		for _, tile := range row {
			if tile.Type == t {
				n++
			}
		}
	}
	return n
}

// Pieces returns every piece of owner in row-major order.
func (b *Board) Pieces(owner string, includeGhosts bool) []*Piece {
	res := make([]*Piece, 0)
	for _, row := range b.Tiles {
		for _, tile := range row {
			for _, p := range tile.Pieces {
				if p.Owner == owner && (includeGhosts || !p.Ghost) {
					res = append(res, p)
				}
			}
		}
	}
	return res
}

// FindPiece looks up piece (owner, number) on the tile at pos. A ghost is
// only returned when ghost is true, a real piece only when it is false.
func (b *Board) FindPiece(owner string, number int, pos Position, ghost bool) *Piece {
	if !b.InBounds(pos) {
		return nil
	}
	for _, p := range b.Tile(pos).Pieces {
		if p.Owner == owner && p.Number == number && p.Ghost == ghost {
			return p
		}
	}
	return nil
}

// AddPiece appends p to the tile at its position.
func (b *Board) AddPiece(p *Piece) {
	t := b.Tile(p.Position)
	t.Pieces = append(t.Pieces, p)
}

// RemovePiece drops exactly p from its tile.
func (b *Board) RemovePiece(p *Piece) {
	t := b.Tile(p.Position)
	for i, o := range t.Pieces {
		if o == p {
			t.Pieces = append(t.Pieces[:i], t.Pieces[i+1:]...)
			return
		}
	}
}

// KillPiece removes every copy, ghost or real, of (owner, number) anywhere
// on the board and returns how many were removed.
func (b *Board) KillPiece(owner string, number int) int {
	removed := 0
	for _, row := range b.Tiles {
		for _, tile := range row {
			kept := tile.Pieces[:0]
			for _, p := range tile.Pieces {
				if p.Owner == owner && p.Number == number {
					removed++
					continue
				}
				kept = append(kept, p)
			}
			tile.Pieces = kept
		}
	}
	return removed
}

// RemoveGhosts strips all ghost pieces.
func (b *Board) RemoveGhosts() {
	for _, row := range b.Tiles {
		for _, tile := range row {
			kept := tile.Pieces[:0]
			for _, p := range tile.Pieces {
				if !p.Ghost {
					kept = append(kept, p)
				}
			}
			tile.Pieces = kept
		}
	}
}

// ClearPieces empties every tile's piece list.
func (b *Board) ClearPieces() {
	for _, row := range b.Tiles {
		for _, tile := range row {
			tile.Pieces = nil
		}
	}
}

func NewPlayerTurn(playerName string) *PlayerTurn {
	return &PlayerTurn{PlayerName: playerName, PiecesActions: make(map[int][]Action)}
}

// AddMove queues a move of piece number from -> to. Moving straight back to
// where the last move started undoes that move instead of queueing a new one.
func (t *PlayerTurn) AddMove(number int, from, to Position) {
	actions := t.PiecesActions[number]
	for i := len(actions) - 1; i >= 0; i-- {
		if actions[i].Type != MOVE {
			continue
		}
		if actions[i].From == to {
			t.PiecesActions[number] = actions[:i]
			return
		}
		break
	}
	t.PiecesActions[number] = append(actions, Action{Type: MOVE, From: from, To: to})
}

// AddBreak queues a wall break issued from the piece standing at from.
func (t *PlayerTurn) AddBreak(number int, from, wall Position) {
	t.PiecesActions[number] = append(t.PiecesActions[number], Action{Type: BREAK_WALL, From: from, To: wall})
}

func (t *PlayerTurn) Clear() {
	t.PiecesActions = make(map[int][]Action)
}

// Len is the total number of queued actions.
func (t *PlayerTurn) Len() int {
	n := 0
	for _, a := range t.PiecesActions {
		n += len(a)
	}
	return n
}
