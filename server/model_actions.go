package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/zucenko/ghostdelve/model"
)

const requestTimeout = 200 * time.Millisecond

func NewGameServer(cfg Config) *GameServer {
	return &GameServer{
		Config:         cfg,
		GameSessions:   make([]*GameSession, 0),
		GameRequests:   make(chan GameRequest),
		Finished:       make(chan *GameSession),
		StatusRequests: make(chan chan Status),
		Upgrader:       &websocket.Upgrader{},
	}
}

func (s *GameServer) HandleHttpCall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("HandleHttpCall - connection received")

		gcas := make(chan GameContextAwaiting, 1)
		select {
		case s.GameRequests <- GameRequest{GameContextAwaiting: gcas}:
		case <-time.After(requestTimeout):
			log.Warn("GameRequests TIMEOUTED")
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}

		var gca GameContextAwaiting
		select {
		case gca = <-gcas:
			if gca.ResponseCode != GAME_READY {
				w.WriteHeader(gca.ResponseCode.ToHttp())
				return
			}
		case <-time.After(requestTimeout):
			log.Warn("HandleHttpCall GameContextAwaiting TIMEOUTED")
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}

		con, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Warn("HandleHttpCall websocket upgrade failed")
			return
		}
		defer con.Close()

		gameOver := make(chan struct{})
		select {
		case gca.GameSession.PlayerConnectRequests <- PlayerConnectRequest{Con: con, GameOver: gameOver}:
		case <-gca.GameSession.Done:
			return
		case <-time.After(requestTimeout):
			log.Warn("HandleHttpCall PlayerConnectRequests TIMEOUTED")
			return
		}

		// the websocket lives until its session's writer is done with it
		<-gameOver
	}
}

// HandleHealth reports open games as JSON.
func (s *GameServer) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan Status, 1)
		select {
		case s.StatusRequests <- reply:
		case <-time.After(requestTimeout):
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}
		st := <-reply
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st); err != nil {
			log.WithError(err).Warn("HandleHealth encode")
		}
	}
}

// Loop routes connections to a game that is still gathering players, or
// opens a new one. It returns when ctx is cancelled.
func (s *GameServer) Loop(ctx context.Context) {
	log.Info("GameServer.Loop starting")
	for {
		select {
		case <-ctx.Done():
			log.Info("GameServer.Loop stopping")
			return
		case gameReq := <-s.GameRequests:
			var gs *GameSession
			for _, candidate := range s.GameSessions {
				if candidate.Joinable() {
					gs = candidate
					break
				}
			}
			if gs == nil && s.Config.MaxGames > 0 && len(s.GameSessions) >= s.Config.MaxGames {
				log.WithField("games", len(s.GameSessions)).Warn("no capacity for another game")
				gameReq.GameContextAwaiting <- GameContextAwaiting{ResponseCode: GAME_NO_CAPACITY}
				continue
			}
			if gs == nil {
				s.games++
				gs = NewGameSession(s.Config, s.games)
				go func(gs *GameSession) {
					gs.Loop(ctx)
					select {
					case s.Finished <- gs:
					case <-ctx.Done():
					}
				}(gs)
				s.GameSessions = append(s.GameSessions, gs)
			}
			gameReq.GameContextAwaiting <- GameContextAwaiting{
				ResponseCode: GAME_READY,
				GameSession:  gs,
			}
		case done := <-s.Finished:
			for i, gs := range s.GameSessions {
				if gs == done {
					s.GameSessions = append(s.GameSessions[:i], s.GameSessions[i+1:]...)
					break
				}
			}
			log.WithField("game", done.Id).Info("game session finished")
		case reply := <-s.StatusRequests:
			st := Status{Games: len(s.GameSessions), States: make(map[string]int)}
			for _, gs := range s.GameSessions {
				st.Players += int(gs.connectionsView.Load())
				st.States[GameSessionState(gs.stateView.Load()).Name()]++
			}
			reply <- st
		}
	}
}

func newPlayerSession(gs *GameSession, conn *websocket.Conn, gameOver chan struct{}) *PlayerSession {
	ps := &PlayerSession{
		State:          PS_NEW,
		Id:             uuid.NewString(),
		GameSession:    gs,
		Conn:           conn,
		GameOver:       gameOver,
		MessagesToSend: make(chan []byte, 16),
	}
	conn.SetPingHandler(
		func(message string) error {
			err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
			if err == websocket.ErrCloseSent {
				return nil
			} else if e, ok := err.(net.Error); ok && e.Timeout() {
				return nil
			}
			return err
		})
	return ps
}

func (ps *PlayerSession) logger() *log.Entry {
	return log.WithFields(log.Fields{"game": ps.GameSession.Id, "session": ps.Id})
}

// Send encodes m now, on the caller's goroutine, so later board mutations
// cannot leak into a queued message. It returns false when the client is
// too far behind to take more.
func (ps *PlayerSession) Send(m model.Message) bool {
	if ps.closed {
		return false
	}
	data, err := json.Marshal(m)
	if err != nil {
		ps.logger().WithError(err).Error("cannot encode message")
		return false
	}
	select {
	case ps.MessagesToSend <- data:
		return true
	default:
		ps.logger().Warn("outgoing queue full")
		return false
	}
}

// Close lets the writer flush what is queued and then hang up.
func (ps *PlayerSession) Close() {
	if ps.closed {
		return
	}
	ps.closed = true
	close(ps.MessagesToSend)
}

// LoopChannelRead forwards every message from the socket to the game
// session until the socket fails or the game is done.
func (ps *PlayerSession) LoopChannelRead() {
	gs := ps.GameSession
	defer func() {
		ps.logger().WithField("in", ps.DebugInMessages).Debug("LoopChannelRead ENDED")
	}()
	for {
		_, data, err := ps.Conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ps.logger().WithError(err).Debug("LoopChannelRead read failed")
			}
			select {
			case gs.Errors <- ps.Id:
			case <-gs.Done:
			}
			return
		}
		ps.DebugInMessages++

		msg, err := model.Decode(data)
		switch m := msg.(type) {
		case model.Join:
			select {
			case gs.Joins <- JoinEvent{Session: ps, Join: m}:
			case <-gs.Done:
				return
			}
		default:
			ev := PlayerEvent{Session: ps, Err: err}
			if turn, ok := m.(*model.PlayerTurn); ok {
				ev.Turn = turn
			} else if err == nil {
				ev.Err = errors.New("unexpected message " + msg.Class())
			}
			select {
			case gs.Events <- ev:
			case <-gs.Done:
				return
			}
		}
	}
}

// LoopChannelWrite only consumes, so a full buffer never blocks the game
// session. It closes the socket once MessagesToSend is closed.
func (ps *PlayerSession) LoopChannelWrite() {
	defer close(ps.GameOver)
	defer func() {
		ps.logger().WithField("out", ps.DebugOutMessages).Debug("LoopChannelWrite ENDED")
	}()
	for data := range ps.MessagesToSend {
		ps.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := ps.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			ps.logger().WithError(err).Warn("LoopChannelWrite write failed")
			select {
			case ps.GameSession.Errors <- ps.Id:
			case <-ps.GameSession.Done:
			}
			for range ps.MessagesToSend {
			}
			return
		}
		ps.DebugOutMessages++
	}
	ps.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
