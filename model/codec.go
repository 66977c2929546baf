package model

import (
	"encoding/json"
	"fmt"
)

func (*Board) Class() string      { return CLASS_BOARD }
func (*PlayerTurn) Class() string { return CLASS_PLAYER_TURN }

type boardJSON struct {
	header
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	GameOver bool      `json:"gameover"`
	Round    int       `json:"round"`
	Tiles    [][]*Tile `json:"tiles"`
}

type tileJSON struct {
	header
	Type   TileType `json:"type"`
	Pieces []*Piece `json:"pieces"`
}

type pieceJSON struct {
	header
	Number   int      `json:"number"`
	Position Position `json:"position"`
	Owner    string   `json:"owner"`
	Ghost    bool     `json:"is_ghost"`
	Color    Color    `json:"color"`
}

type turnJSON struct {
	header
	PlayerName    string           `json:"player_name"`
	Round         int              `json:"round"`
	PiecesActions map[int][]Action `json:"pieces_actions"`
}

type actionJSON struct {
	header
	Type ActionType `json:"action_type"`
	Args []Position `json:"args"`
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var xy []int
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("%w: position needs 2 coordinates, got %d", ErrMalformed, len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{
		header:   header{CLASS_BOARD, SchemaVersion},
		Width:    b.Width,
		Height:   b.Height,
		GameOver: b.GameOver,
		Round:    b.Round,
		Tiles:    b.Tiles,
	})
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var bj boardJSON
	if err := json.Unmarshal(data, &bj); err != nil {
		return err
	}
	if err := bj.check(CLASS_BOARD); err != nil {
		return err
	}
	if bj.Width <= 0 || bj.Height <= 0 || len(bj.Tiles) != bj.Height {
		return fmt.Errorf("%w: board %dx%d with %d rows", ErrMalformed, bj.Width, bj.Height, len(bj.Tiles))
	}
	for y, row := range bj.Tiles {
		if len(row) != bj.Width {
			return fmt.Errorf("%w: row %d has %d tiles, want %d", ErrMalformed, y, len(row), bj.Width)
		}
		for x, t := range row {
			if t == nil {
				return fmt.Errorf("%w: missing tile at %d,%d", ErrMalformed, x, y)
			}
		}
	}
	b.Width, b.Height, b.GameOver, b.Round, b.Tiles = bj.Width, bj.Height, bj.GameOver, bj.Round, bj.Tiles
	return nil
}

func (t *Tile) MarshalJSON() ([]byte, error) {
	pieces := t.Pieces
	if pieces == nil {
		pieces = []*Piece{}
	}
	return json.Marshal(tileJSON{header{Class: CLASS_TILE}, t.Type, pieces})
}

func (t *Tile) UnmarshalJSON(data []byte) error {
	var tj tileJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return err
	}
	if err := tj.check(CLASS_TILE); err != nil {
		return err
	}
	if !tj.Type.Valid() {
		return fmt.Errorf("%w: tile type %q", ErrMalformed, tj.Type)
	}
	t.Type, t.Pieces = tj.Type, tj.Pieces
	if len(t.Pieces) == 0 {
		t.Pieces = nil
	}
	return nil
}

func (p *Piece) MarshalJSON() ([]byte, error) {
	return json.Marshal(pieceJSON{header{Class: CLASS_PIECE}, p.Number, p.Position, p.Owner, p.Ghost, p.Color})
}

func (p *Piece) UnmarshalJSON(data []byte) error {
	var pj pieceJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	if err := pj.check(CLASS_PIECE); err != nil {
		return err
	}
	*p = Piece{Number: pj.Number, Position: pj.Position, Owner: pj.Owner, Ghost: pj.Ghost, Color: pj.Color}
	return nil
}

func (t *PlayerTurn) MarshalJSON() ([]byte, error) {
	actions := t.PiecesActions
	if actions == nil {
		actions = map[int][]Action{}
	}
	return json.Marshal(turnJSON{header{CLASS_PLAYER_TURN, SchemaVersion}, t.PlayerName, t.Round, actions})
}

func (t *PlayerTurn) UnmarshalJSON(data []byte) error {
	var tj turnJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return err
	}
	if err := tj.check(CLASS_PLAYER_TURN); err != nil {
		return err
	}
	t.PlayerName, t.Round, t.PiecesActions = tj.PlayerName, tj.Round, tj.PiecesActions
	if t.PiecesActions == nil {
		t.PiecesActions = make(map[int][]Action)
	}
	return nil
}

func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(actionJSON{header{Class: CLASS_ACTION}, a.Type, []Position{a.From, a.To}})
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var aj actionJSON
	if err := json.Unmarshal(data, &aj); err != nil {
		return err
	}
	if err := aj.check(CLASS_ACTION); err != nil {
		return err
	}
	if aj.Type != MOVE && aj.Type != BREAK_WALL {
		return fmt.Errorf("%w: action type %q", ErrMalformed, aj.Type)
	}
	if len(aj.Args) != 2 {
		return fmt.Errorf("%w: action needs [from, to], got %d args", ErrMalformed, len(aj.Args))
	}
	*a = Action{Type: aj.Type, From: aj.Args[0], To: aj.Args[1]}
	return nil
}
