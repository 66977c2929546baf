package rules

import (
	"math/rand"

	"github.com/zucenko/ghostdelve/model"
)

// Die rolls one six-sided die.
type Die interface {
	Roll() int
}

type rngDie struct {
	rng *rand.Rand
}

func (d rngDie) Roll() int {
	return d.rng.Intn(6) + 1
}

// Engine applies the rules with one configuration and one source of
// randomness. It is not safe for concurrent use.
type Engine struct {
	Config Config
	rng    *rand.Rand
	die    Die
}

func NewEngine(cfg Config, rng *rand.Rand) *Engine {
	return &Engine{Config: cfg, rng: rng, die: rngDie{rng}}
}

// WithDie swaps the duel die, mostly for tests and replays.
func (e *Engine) WithDie(d Die) *Engine {
	e.die = d
	return e
}

// Game is the ground truth plus the roster in join order.
type Game struct {
	Board   *model.Board
	Players []*model.Player
	Round   int
}

func (g *Game) Player(name string) *model.Player {
	for _, p := range g.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Alive lists the players that still hold at least one real piece.
func (g *Game) Alive() []*model.Player {
	res := make([]*model.Player, 0, len(g.Players))
	for _, p := range g.Players {
		if len(g.Board.Pieces(p.Name, false)) > 0 {
			res = append(res, p)
		}
	}
	return res
}
