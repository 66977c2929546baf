package server

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zucenko/ghostdelve/model"
	"github.com/zucenko/ghostdelve/rules"
)

type GameServer struct {
	Config         Config
	GameSessions   []*GameSession
	GameRequests   chan GameRequest
	Finished       chan *GameSession
	StatusRequests chan chan Status
	Upgrader       *websocket.Upgrader
	games          int64
}

type GameSessionState int

const (
	GS_LOBBY GameSessionState = iota
	GS_ACTIVE
	GS_OVER
	GS_ERR
)

// GameSession owns one game. Only its Loop goroutine touches Game, Roster
// and the sessions' State fields; everything else talks to it over channels.
type GameSession struct {
	Id             string
	State          GameSessionState
	Config         Config
	Engine         *rules.Engine
	Game           *rules.Game
	PlayerSessions []*PlayerSession
	Roster         []*PlayerSession
	Turns          map[string]*model.PlayerTurn

	PlayerConnectRequests chan PlayerConnectRequest
	Joins                 chan JoinEvent
	Events                chan PlayerEvent
	Errors                chan string
	Done                  chan struct{}

	roundTimer *time.Timer

	// mirrors of State and len(PlayerSessions) for readers outside Loop
	stateView       atomic.Int32
	connectionsView atomic.Int32
}

type PlayerSessionState int

const (
	PS_NEW PlayerSessionState = iota + 1
	PS_SEATED
	PS_PLAY
	PS_OVER
	PS_ERR
)

type PlayerSession struct {
	State       PlayerSessionState
	Id          string
	Name        string
	Color       model.Color
	GameSession *GameSession
	Conn        *websocket.Conn
	GameOver    chan struct{}

	MessagesToSend chan []byte
	closed         bool

	// owned by the read and write goroutines, logged when they end
	DebugInMessages  int
	DebugOutMessages int
}
