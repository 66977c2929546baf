package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zucenko/ghostdelve/model"
	"github.com/zucenko/ghostdelve/rules"
	"github.com/zucenko/ghostdelve/telemetry"
)

func NewGameSession(cfg Config, n int64) *GameSession {
	gs := &GameSession{
		Id:                    uuid.NewString(),
		State:                 GS_LOBBY,
		Config:                cfg,
		Engine:                rules.NewEngine(cfg.Rules(), cfg.NewRand(n)),
		PlayerSessions:        make([]*PlayerSession, 0),
		Roster:                make([]*PlayerSession, 0),
		PlayerConnectRequests: make(chan PlayerConnectRequest),
		Joins:                 make(chan JoinEvent),
		Events:                make(chan PlayerEvent),
		Errors:                make(chan string),
		Done:                  make(chan struct{}),
	}
	gs.stateView.Store(int32(GS_LOBBY))
	return gs
}

// Joinable reports whether a new connection may still be routed here. It is
// safe to call from any goroutine.
func (gs *GameSession) Joinable() bool {
	return GameSessionState(gs.stateView.Load()) == GS_LOBBY &&
		int(gs.connectionsView.Load()) < gs.Config.Players
}

func (gs *GameSession) logger() *log.Entry {
	return log.WithField("game", gs.Id)
}

func (gs *GameSession) setState(s GameSessionState) {
	gs.State = s
	gs.stateView.Store(int32(s))
}

func (gs *GameSession) turnDeadline() <-chan time.Time {
	if gs.roundTimer == nil {
		return nil
	}
	return gs.roundTimer.C
}

// Loop is the only goroutine that mutates the game. Connections feed it
// joins, turns and failures; it answers through each session's outgoing
// queue. It returns once the game is over or ctx is cancelled.
func (gs *GameSession) Loop(ctx context.Context) {
	gs.logger().Info("GameSession.Loop start")
	defer close(gs.Done)
	for gs.State == GS_LOBBY || gs.State == GS_ACTIVE {
		select {
		case <-ctx.Done():
			gs.end(model.Result{Text: "Server shutting down."})
		case pcr := <-gs.PlayerConnectRequests:
			gs.addPlayer(pcr.Con, pcr.GameOver)
		case j := <-gs.Joins:
			gs.join(ctx, j)
		case ev := <-gs.Events:
			gs.turn(ctx, ev)
		case id := <-gs.Errors:
			gs.drop(ctx, id)
		case <-gs.turnDeadline():
			gs.logger().WithField("round", gs.Game.Round+1).Warn("turn deadline reached")
			gs.resolveRound(ctx)
		}
	}
	gs.logger().WithField("state", gs.State.Name()).Info("GameSession.Loop end")
}

func (gs *GameSession) addPlayer(conn *websocket.Conn, gameOver chan struct{}) {
	ps := newPlayerSession(gs, conn, gameOver)
	gs.PlayerSessions = append(gs.PlayerSessions, ps)
	gs.connectionsView.Store(int32(len(gs.PlayerSessions)))
	go ps.LoopChannelRead()
	go ps.LoopChannelWrite()

	if gs.State != GS_LOBBY {
		gs.reject(ps, REJECT_FULL)
		return
	}
	ps.Send(model.Prompt{Text: PROMPT_TEXT, Players: gs.Config.Players})
}

func (gs *GameSession) reject(ps *PlayerSession, reason string) {
	ps.logger().WithField("reason", reason).Warn("connection rejected")
	ps.Send(model.Rejected{Reason: reason})
	ps.State = PS_ERR
	ps.Close()
	gs.forget(ps)
}

func (gs *GameSession) forget(ps *PlayerSession) {
	for i, o := range gs.PlayerSessions {
		if o == ps {
			gs.PlayerSessions = append(gs.PlayerSessions[:i], gs.PlayerSessions[i+1:]...)
			break
		}
	}
	gs.connectionsView.Store(int32(len(gs.PlayerSessions)))
}

// validateJoin checks a lobby answer against the current roster.
func (gs *GameSession) validateJoin(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if len(gs.Roster) >= gs.Config.Players {
		return ErrLobbyFull
	}
	for _, o := range gs.Roster {
		if o.Name == name {
			return ErrNameTaken
		}
	}
	return nil
}

func (gs *GameSession) join(ctx context.Context, j JoinEvent) {
	ps := j.Session
	if ps.State != PS_NEW {
		return
	}
	name := strings.TrimSpace(j.Join.Name)
	switch err := gs.validateJoin(name); err {
	case nil:
	case ErrEmptyName:
		gs.reject(ps, REJECT_NO_NAME)
		return
	case ErrNameTaken:
		gs.reject(ps, REJECT_TAKEN)
		return
	default:
		gs.reject(ps, REJECT_FULL)
		return
	}

	ps.Name, ps.Color, ps.State = name, j.Join.Color, PS_SEATED
	gs.Roster = append(gs.Roster, ps)
	gs.logger().WithField("player", name).Info("player joined")
	gs.broadcastRoster()

	if len(gs.Roster) == gs.Config.Players {
		gs.start(ctx)
	}
}

func (gs *GameSession) broadcastRoster() {
	roster := model.Roster{Players: make([]model.PlayerInfo, 0, len(gs.Roster))}
	for _, ps := range gs.Roster {
		roster.Players = append(roster.Players, model.PlayerInfo{Name: ps.Name, Color: ps.Color})
	}
	for _, ps := range gs.PlayerSessions {
		ps.Send(roster)
	}
}

func (gs *GameSession) start(ctx context.Context) {
	infos := make([]model.PlayerInfo, 0, len(gs.Roster))
	for _, ps := range gs.Roster {
		infos = append(infos, model.PlayerInfo{Name: ps.Name, Color: ps.Color})
	}
	game, err := gs.Engine.NewGame(ctx, infos)
	if err != nil {
		gs.logger().WithError(err).Error("cannot start game")
		gs.broadcast(model.Error{Text: GENERATE_FAILED})
		gs.setState(GS_ERR)
		gs.closeAll()
		return
	}
	gs.Game = game
	gs.setState(GS_ACTIVE)

	waiting := make([]*PlayerSession, 0)
	for _, ps := range gs.PlayerSessions {
		if ps.State == PS_NEW {
			waiting = append(waiting, ps)
		}
	}
	for _, ps := range waiting {
		gs.reject(ps, REJECT_FULL)
	}
	for _, ps := range gs.Roster {
		ps.State = PS_PLAY
	}
	gs.logger().WithField("players", len(infos)).Info("game started")
	gs.beginRound(ctx)
}

// beginRound sends every seated player its private board and waits for
// turns again.
func (gs *GameSession) beginRound(ctx context.Context) {
	gs.Turns = make(map[string]*model.PlayerTurn, len(gs.Roster))
	lost := false
	for _, ps := range gs.Roster {
		if ps.State != PS_PLAY {
			continue
		}
		view := gs.Game.Player(ps.Name).Board
		view.Round = gs.Game.Round + 1
		if !ps.Send(view) {
			gs.markDead(ps)
			lost = true
		}
	}
	if gs.Config.TurnTimeout > 0 {
		gs.roundTimer = time.NewTimer(gs.Config.TurnTimeout)
	}
	if lost {
		gs.afterLeave(ctx)
	}
}

func (gs *GameSession) stopRoundTimer() {
	if gs.roundTimer != nil {
		gs.roundTimer.Stop()
		gs.roundTimer = nil
	}
}

func (gs *GameSession) turn(ctx context.Context, ev PlayerEvent) {
	ps := ev.Session
	if gs.State == GS_LOBBY && ps.State == PS_NEW {
		gs.reject(ps, REJECT_NO_JOIN)
		return
	}
	if gs.State != GS_ACTIVE || ps.State != PS_PLAY {
		ps.logger().Debug("turn outside of a round ignored")
		return
	}
	if _, done := gs.Turns[ps.Name]; done {
		ps.logger().WithField("player", ps.Name).Warn("second turn in one round ignored")
		return
	}
	if ev.Err == nil && ev.Turn.Round != gs.Game.Round+1 {
		// planned on an older board, most likely after a missed deadline
		gs.logger().WithFields(log.Fields{
			"player": ps.Name,
			"round":  gs.Game.Round + 1,
			"for":    ev.Turn.Round,
		}).Warn("stale turn ignored")
		return
	}
	if ev.Err != nil {
		gs.logger().WithError(ev.Err).WithField("player", ps.Name).Warn("malformed turn")
		gs.broadcast(model.Error{Player: ps.Name, Text: MALFORMED_TURN})
		gs.Turns[ps.Name] = model.NewPlayerTurn(ps.Name)
	} else {
		// the connection decides who is playing, not the message
		ev.Turn.PlayerName = ps.Name
		gs.Turns[ps.Name] = ev.Turn
	}
	if gs.allTurnsIn() {
		gs.resolveRound(ctx)
	}
}

func (gs *GameSession) allTurnsIn() bool {
	for _, ps := range gs.Roster {
		if ps.State != PS_PLAY {
			continue
		}
		if _, ok := gs.Turns[ps.Name]; !ok {
			return false
		}
	}
	return true
}

func (gs *GameSession) resolveRound(ctx context.Context) {
	gs.stopRoundTimer()
	ctx, span := telemetry.Tracer("server").Start(ctx, "round")
	defer span.End()

	out := gs.Engine.ResolveRound(ctx, gs.Game, gs.Turns)
	span.SetAttributes(attribute.String("game.id", gs.Id), attribute.Int("round.turns", len(gs.Turns)))
	gs.logger().WithFields(log.Fields{
		"round":   out.Round,
		"applied": out.Applied,
		"duels":   len(out.Duels),
	}).Info("round resolved")

	if out.Over {
		gs.finish(out)
		return
	}
	gs.beginRound(ctx)
}

func (gs *GameSession) finish(out rules.Outcome) {
	// last look at the board before the result
	for _, ps := range gs.Roster {
		if ps.State == PS_PLAY {
			ps.Send(gs.Game.Player(ps.Name).Board)
		}
	}
	res := model.Result{Winner: out.Winner}
	switch out.Reason {
	case rules.WIN_DRAW:
		res.Text = "Nobody has won."
	case WIN_FORFEIT:
		res.Text = fmt.Sprintf("Player %s has won, everybody else left.", out.Winner)
	default:
		res.Text = fmt.Sprintf("Player %s has won.", out.Winner)
	}
	gs.logger().WithFields(log.Fields{"winner": out.Winner, "reason": out.Reason}).Info("game over")
	gs.end(res)
}

func (gs *GameSession) end(res model.Result) {
	gs.stopRoundTimer()
	gs.broadcast(res)
	gs.setState(GS_OVER)
	gs.closeAll()
}

func (gs *GameSession) broadcast(m model.Message) {
	for _, ps := range gs.PlayerSessions {
		ps.Send(m)
	}
}

func (gs *GameSession) closeAll() {
	for _, ps := range gs.PlayerSessions {
		if ps.State != PS_ERR {
			ps.State = PS_OVER
		}
		ps.Close()
	}
}

// markDead stops waiting on a player for this and every later round.
func (gs *GameSession) markDead(ps *PlayerSession) {
	ps.State = PS_ERR
	ps.Close()
	gs.forget(ps)
}

func (gs *GameSession) drop(ctx context.Context, id string) {
	var ps *PlayerSession
	for _, o := range gs.PlayerSessions {
		if o.Id == id {
			ps = o
			break
		}
	}
	if ps == nil {
		return
	}
	gs.logger().WithFields(log.Fields{"session": id, "player": ps.Name}).Warn("player disconnected")
	wasSeated := ps.State != PS_NEW
	gs.markDead(ps)

	switch gs.State {
	case GS_LOBBY:
		if !wasSeated {
			return
		}
		for i, o := range gs.Roster {
			if o == ps {
				gs.Roster = append(gs.Roster[:i], gs.Roster[i+1:]...)
				break
			}
		}
		gs.broadcastRoster()
	case GS_ACTIVE:
		gs.afterLeave(ctx)
	}
}

// afterLeave ends the game when nobody or only one player is left
// connected, and otherwise stops the round from waiting on the ones gone.
func (gs *GameSession) afterLeave(ctx context.Context) {
	playing := make([]*PlayerSession, 0, len(gs.Roster))
	for _, o := range gs.Roster {
		if o.State == PS_PLAY {
			playing = append(playing, o)
		}
	}
	switch len(playing) {
	case 0:
		gs.end(model.Result{Text: "Everybody left."})
	case 1:
		winner := playing[0].Name
		gs.Game.Board.GameOver = true
		gs.Game.Player(winner).Board.GameOver = true
		gs.finish(rules.Outcome{Round: gs.Game.Round, Over: true, Winner: winner, Reason: WIN_FORFEIT})
	default:
		if gs.allTurnsIn() {
			gs.resolveRound(ctx)
		}
	}
}
