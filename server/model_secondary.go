package server

import (
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/zucenko/ghostdelve/model"
)

const HTTP_SUCCESS = 200
const HTTP_TIMEOUT = 408
const HTTP_SERVER_ERR = 503

const (
	PROMPT_TEXT     = "Please enter player name."
	REJECT_NO_NAME  = "Need a name to play."
	REJECT_TAKEN    = "That name is already taken."
	REJECT_FULL     = "The lobby is full."
	REJECT_NO_JOIN  = "Expected a join message."
	MALFORMED_TURN  = "Turn could not be read and was skipped."
	GENERATE_FAILED = "Could not generate a board."
)

// WIN_FORFEIT is the outcome reason when every other player disconnected.
const WIN_FORFEIT = "forfeit"

var (
	ErrEmptyName = errors.New("empty player name")
	ErrNameTaken = errors.New("player name taken")
	ErrLobbyFull = errors.New("lobby full")
)

type ResponseCode int

const (
	GAME_READY ResponseCode = iota
	// every game is running and no new one may be opened
	GAME_NO_CAPACITY
)

func (h ResponseCode) ToHttp() int {
	switch h {
	case GAME_READY:
		return HTTP_SUCCESS
	case GAME_NO_CAPACITY:
		return HTTP_SERVER_ERR
	default:
		panic(h)
	}
}

func (gss GameSessionState) Name() string {
	switch gss {
	case GS_LOBBY:
		return "LOBBY"
	case GS_ACTIVE:
		return "ACTIVE"
	case GS_OVER:
		return "GAMEOVER"
	case GS_ERR:
		return "ERR"
	default:
		return fmt.Sprintf("n/a:%d", gss)
	}
}

func (ps PlayerSessionState) Name() string {
	switch ps {
	case PS_NEW:
		return "NEW"
	case PS_SEATED:
		return "SEATED"
	case PS_PLAY:
		return "PLAY"
	case PS_OVER:
		return "OVER"
	case PS_ERR:
		return "ERR"
	default:
		return "N/A"
	}
}

type GameContextAwaiting struct {
	ResponseCode ResponseCode
	GameSession  *GameSession
}

type GameRequest struct {
	GameContextAwaiting chan GameContextAwaiting
}

type PlayerConnectRequest struct {
	Con      *websocket.Conn
	GameOver chan struct{}
}

// JoinEvent is a lobby handshake answer read off a connection.
type JoinEvent struct {
	Session *PlayerSession
	Join    model.Join
}

// PlayerEvent is a turn read off a connection. Err is set when the message
// could not be decoded.
type PlayerEvent struct {
	Session *PlayerSession
	Turn    *model.PlayerTurn
	Err     error
}

// Status is what /healthz reports.
type Status struct {
	Games   int            `json:"games"`
	Players int            `json:"players"`
	States  map[string]int `json:"states"`
}
