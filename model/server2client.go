package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaVersion is stamped on every top-level message.
const SchemaVersion = 1

const (
	CLASS_BOARD       = "Board"
	CLASS_TILE        = "Tile"
	CLASS_PIECE       = "Piece"
	CLASS_PLAYER_TURN = "PlayerTurn"
	CLASS_ACTION      = "Action"
	CLASS_JOIN        = "Join"
	CLASS_PROMPT      = "Prompt"
	CLASS_REJECTED    = "Rejected"
	CLASS_ROSTER      = "Roster"
	CLASS_RESULT      = "Result"
	CLASS_ERROR       = "Error"
)

var (
	ErrUnknownClass  = errors.New("unknown message class")
	ErrSchemaVersion = errors.New("unsupported schema version")
	ErrMalformed     = errors.New("malformed message")
)

// Message is anything that travels as one websocket message.
type Message interface {
	Class() string
}

type header struct {
	Class   string `json:"class"`
	Version int    `json:"version,omitempty"`
}

func (h header) check(class string) error {
	if h.Class != class {
		return fmt.Errorf("%w: want %q got %q", ErrUnknownClass, class, h.Class)
	}
	if h.Version != 0 && h.Version != SchemaVersion {
		return fmt.Errorf("%w: %d", ErrSchemaVersion, h.Version)
	}
	return nil
}

// Join is the first message a client sends: who it is.
type Join struct {
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// Prompt greets a fresh connection and says how many seats the lobby has.
type Prompt struct {
	Text    string `json:"text"`
	Players int    `json:"players"`
}

// Rejected is sent right before the server closes a refused connection.
type Rejected struct {
	Reason string `json:"reason"`
}

// Roster is broadcast after every successful join.
type Roster struct {
	Players []PlayerInfo `json:"players"`
}

// Result ends the game. Winner is empty on a draw.
type Result struct {
	Winner string `json:"winner"`
	Text   string `json:"text"`
}

// Error tells every client a round went wrong without ending the game.
type Error struct {
	Player string `json:"player,omitempty"`
	Text   string `json:"text"`
}

func (Join) Class() string     { return CLASS_JOIN }
func (Prompt) Class() string   { return CLASS_PROMPT }
func (Rejected) Class() string { return CLASS_REJECTED }
func (Roster) Class() string   { return CLASS_ROSTER }
func (Result) Class() string   { return CLASS_RESULT }
func (Error) Class() string    { return CLASS_ERROR }

func (m Join) MarshalJSON() ([]byte, error) {
	type plain Join
	return json.Marshal(struct {
		header
		plain
	}{header{CLASS_JOIN, SchemaVersion}, plain(m)})
}

func (m Prompt) MarshalJSON() ([]byte, error) {
	type plain Prompt
	return json.Marshal(struct {
		header
		plain
	}{header{CLASS_PROMPT, SchemaVersion}, plain(m)})
}

func (m Rejected) MarshalJSON() ([]byte, error) {
	type plain Rejected
	return json.Marshal(struct {
		header
		plain
	}{header{CLASS_REJECTED, SchemaVersion}, plain(m)})
}

func (m Roster) MarshalJSON() ([]byte, error) {
	type plain Roster
	if m.Players == nil {
		m.Players = []PlayerInfo{}
	}
	return json.Marshal(struct {
		header
		plain
	}{header{CLASS_ROSTER, SchemaVersion}, plain(m)})
}

func (m Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		header
		plain
	}{header{CLASS_RESULT, SchemaVersion}, plain(m)})
}

func (m Error) MarshalJSON() ([]byte, error) {
	type plain Error
	return json.Marshal(struct {
		header
		plain
	}{header{CLASS_ERROR, SchemaVersion}, plain(m)})
}

// Decode reads one message, dispatching on its class tag into the matching
// concrete type. Board and PlayerTurn come back as pointers.
func Decode(data []byte) (Message, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if h.Version != 0 && h.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrSchemaVersion, h.Version)
	}
	var m Message
	switch h.Class {
	case CLASS_BOARD:
		m = &Board{}
	case CLASS_PLAYER_TURN:
		m = &PlayerTurn{}
	case CLASS_JOIN:
		m = &Join{}
	case CLASS_PROMPT:
		m = &Prompt{}
	case CLASS_REJECTED:
		m = &Rejected{}
	case CLASS_ROSTER:
		m = &Roster{}
	case CLASS_RESULT:
		m = &Result{}
	case CLASS_ERROR:
		m = &Error{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, h.Class)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", h.Class, err)
	}
	return deref(m), nil
}

func deref(m Message) Message {
	switch v := m.(type) {
	case *Join:
		return *v
	case *Prompt:
		return *v
	case *Rejected:
		return *v
	case *Roster:
		return *v
	case *Result:
		return *v
	case *Error:
		return *v
	}
	return m
}
