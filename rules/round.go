package rules

import (
	"context"
	"sort"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zucenko/ghostdelve/model"
	"github.com/zucenko/ghostdelve/telemetry"
)

const (
	WIN_EXIT        = "exit"
	WIN_ELIMINATION = "elimination"
	WIN_DRAW        = "draw"
)

// Outcome summarizes one resolved round.
type Outcome struct {
	Round   int
	Applied map[string]int
	Duels   []Duel
	Over    bool
	Winner  string
	Reason  string
}

// ApplyTurn plays one player's turn against the truth and returns how many
// actions took effect. Pieces go in number order; each piece runs its
// actions in submission order and anything past the action budget is
// dropped. Illegal actions are skipped without touching the board.
func (e *Engine) ApplyTurn(g *Game, turn *model.PlayerTurn) int {
	if turn == nil {
		return 0
	}
	player := g.Player(turn.PlayerName)
	if player == nil {
		return 0
	}

	numbers := make([]int, 0, len(turn.PiecesActions))
	for n := range turn.PiecesActions {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	applied := 0
	for _, n := range numbers {
		actions := turn.PiecesActions[n]
		if len(actions) > e.Config.ActionsPerPiece {
			actions = actions[:e.Config.ActionsPerPiece]
		}
		for _, a := range actions {
			var ok bool
			switch a.Type {
			case model.MOVE:
				piece := g.Board.FindPiece(player.Name, n, a.From, false)
				ok = e.TryMove(g.Board, player, piece, a.To)
			case model.BREAK_WALL:
				piece := g.Board.FindPiece(player.Name, n, a.From, true)
				ok = e.TryBreakWall(g.Board, piece, a.To)
			}
			log.WithFields(log.Fields{
				"player": player.Name,
				"piece":  n,
				"action": a.Type,
				"from":   a.From,
				"to":     a.To,
				"ok":     ok,
			}).Debug("action")
			if ok {
				applied++
			}
		}
	}
	return applied
}

// ResolveRound applies every turn in roster order, fights the duels, clears
// the ghosts, refreshes every private view and checks for a winner. Players
// without a turn simply do nothing this round.
func (e *Engine) ResolveRound(ctx context.Context, g *Game, turns map[string]*model.PlayerTurn) Outcome {
	_, span := telemetry.Tracer("rules").Start(ctx, "round.resolve")
	defer span.End()

	g.Round++
	out := Outcome{Round: g.Round, Applied: make(map[string]int, len(g.Players))}
	for _, p := range g.Players {
		out.Applied[p.Name] = e.ApplyTurn(g, turns[p.Name])
	}

	out.Duels = e.ResolveDuels(g.Board)
	for _, d := range out.Duels {
		log.WithFields(log.Fields{"round": g.Round, "at": d.At, "rolls": d.Rolls}).Debug("duel")
	}
	g.Board.RemoveGhosts()

	for _, p := range g.Players {
		e.Recompute(p, g.Board)
	}
	e.checkWin(g, &out)

	span.SetAttributes(
		attribute.Int("round.number", g.Round),
		attribute.Int("round.duels", len(out.Duels)),
		attribute.Bool("round.over", out.Over),
	)
	return out
}

func (e *Engine) checkWin(g *Game, out *Outcome) {
	for _, p := range g.Players {
		if e.checkRace(g.Board, p) && !out.Over {
			out.Over, out.Winner, out.Reason = true, p.Name, WIN_EXIT
		}
	}
	if out.Over {
		return
	}

	alive := g.Alive()
	if len(alive) > 1 {
		return
	}
	g.Board.GameOver = true
	out.Over = true
	if len(alive) == 0 {
		out.Reason = WIN_DRAW
		return
	}
	out.Winner, out.Reason = alive[0].Name, WIN_ELIMINATION
	alive[0].Board.GameOver = true
}
