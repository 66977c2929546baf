package model

// TileType is the kind of a board square. Ground truth boards only hold the
// clear kinds; private boards may also hold UNKNOWN and the FOG_* kinds.
type TileType string

const (
	UNKNOWN TileType = "UNKNOWN"

	FOG_VOID  TileType = "FOG_VOID"
	FOG_WALL  TileType = "FOG_WALL"
	FOG_FLOOR TileType = "FOG_FLOOR"

	VOID  TileType = "VOID"
	WALL  TileType = "WALL"
	FLOOR TileType = "FLOOR"

	SPAWN       TileType = "SPAWN"
	EXIT        TileType = "EXIT"
	CLOSED_EXIT TileType = "CLOSED_EXIT"
	CHEST       TileType = "CHEST"
	TRAP        TileType = "TRAP"
)

var tileTypes = map[TileType]struct{}{
	UNKNOWN: {}, FOG_VOID: {}, FOG_WALL: {}, FOG_FLOOR: {},
	VOID: {}, WALL: {}, FLOOR: {},
	SPAWN: {}, EXIT: {}, CLOSED_EXIT: {}, CHEST: {}, TRAP: {},
}

// Valid reports whether t is one of the known tile kinds.
func (t TileType) Valid() bool {
	_, ok := tileTypes[t]
	return ok
}

// IsFloor groups every walkable kind, fogged floor included.
func (t TileType) IsFloor() bool {
	switch t {
	case FLOOR, FOG_FLOOR, SPAWN, EXIT, CHEST, TRAP, CLOSED_EXIT:
		return true
	}
	return false
}

// IsWall groups breakable rock, fogged or not.
func (t TileType) IsWall() bool {
	return t == WALL || t == FOG_WALL
}

// IsClear is false for the unknown and fog kinds.
func (t TileType) IsClear() bool {
	switch t {
	case UNKNOWN, FOG_VOID, FOG_WALL, FOG_FLOOR:
		return false
	}
	return true
}

// Fog returns the coarse category a player keeps of t once it is no longer
// in clear sight. UNKNOWN stays UNKNOWN.
func (t TileType) Fog() TileType {
	switch {
	case t == UNKNOWN:
		return UNKNOWN
	case t.IsFloor():
		return FOG_FLOOR
	case t.IsWall():
		return FOG_WALL
	default:
		return FOG_VOID
	}
}

// Position is a board coordinate; X is the column, Y the row.
type Position struct {
	X, Y int
}

// Color is an RGB triple.
type Color [3]uint8

type Piece struct {
	Number   int
	Position Position
	Owner    string
	Ghost    bool
	Color    Color
}

// Same reports whether o is the same logical piece, ghost or not.
func (p *Piece) Same(o *Piece) bool {
	return p.Owner == o.Owner && p.Number == o.Number
}

type Tile struct {
	Type   TileType
	Pieces []*Piece
}

func (t *Tile) IsFloor() bool { return t.Type.IsFloor() }
func (t *Tile) IsWall() bool  { return t.Type.IsWall() }
func (t *Tile) IsClear() bool { return t.Type.IsClear() }

// BreakWall turns a wall into floor, keeping its fog state.
func (t *Tile) BreakWall() {
	switch t.Type {
	case WALL:
		t.Type = FLOOR
	case FOG_WALL:
		t.Type = FOG_FLOOR
	}
}

// Board is a Width x Height grid, indexed Tiles[y][x].
type Board struct {
	Width    int
	Height   int
	GameOver bool
	// Round is the round a turn planned on this view is for. The ground
	// truth leaves it at 0.
	Round int
	Tiles [][]*Tile
}

// Player is identified by Name everywhere ownership is compared.
type Player struct {
	Name         string
	Color        Color
	Spawn        Position
	PiecesExited int
	Board        *Board
}

type ActionType string

const (
	MOVE       ActionType = "MOVE"
	BREAK_WALL ActionType = "BREAK_WALL"
)

type Action struct {
	Type ActionType
	From Position
	To   Position
}

// PlayerTurn is everything one player wants to do in one round, keyed by
// piece number. Actions of a piece are applied in slice order.
type PlayerTurn struct {
	PlayerName string
	// Round echoes the Round of the board the turn was planned on.
	Round         int
	PiecesActions map[int][]Action
}

// PlayerInfo is a lobby roster entry.
type PlayerInfo struct {
	Name  string `json:"name"`
	Color Color  `json:"color"`
}
