package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zucenko/ghostdelve/model"
	"github.com/zucenko/ghostdelve/telemetry"
)

const maxGenerateAttempts = 1000

var (
	ErrGenerationFailed = errors.New("board generation failed")
	ErrNotEnoughSites   = errors.New("not enough spawn and exit sites")
)

// Generate carves a board out of solid rock. It retries until the leftover
// wall fraction is above the floor target.
func (e *Engine) Generate(ctx context.Context, width, height int) (*model.Board, error) {
	_, span := telemetry.Tracer("rules").Start(ctx, "board.generate")
	defer span.End()
	started := time.Now()

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		b := model.NewBoard(width, height, model.WALL)
		if !e.mine(b) {
			continue
		}
		setVoidTiles(b)
		if wallFraction(b) <= e.Config.FloorTarget {
			continue
		}
		span.SetAttributes(
			attribute.Int("board.width", width),
			attribute.Int("board.height", height),
			attribute.Int("board.attempts", attempt),
			attribute.Int64("board.generation_ms", time.Since(started).Milliseconds()),
		)
		return b, nil
	}
	return nil, fmt.Errorf("%w: %dx%d after %d attempts", ErrGenerationFailed, width, height, maxGenerateAttempts)
}

// mine random-walks from a random cell, preferring to break walls and
// otherwise hopping onto floor, until enough floor is carved. It gives up
// when the walk is boxed in.
func (e *Engine) mine(b *model.Board) bool {
	cur := model.Position{X: e.rng.Intn(b.Width), Y: e.rng.Intn(b.Height)}
	b.Tile(cur).Type = model.FLOOR
	floor := 1
	target := int(float64(b.Width*b.Height) * e.Config.FloorTarget)
	maxSteps := 100 * b.Width * b.Height

	for steps := 0; floor < target; steps++ {
		if steps > maxSteps {
			return false
		}
		walls := make([]model.Position, 0, 4)
		floors := make([]model.Position, 0, 4)
		for _, n := range b.Neighbors(cur) {
			switch t := b.Tile(n); {
			case t.Type == model.WALL && b.CanBreakWall(n):
				walls = append(walls, n)
			case t.Type == model.FLOOR:
				floors = append(floors, n)
			}
		}
		switch {
		case len(walls) > 0:
			cur = walls[e.rng.Intn(len(walls))]
			b.Tile(cur).Type = model.FLOOR
			floor++
		case len(floors) > 0:
			cur = floors[e.rng.Intn(len(floors))]
		default:
			return false
		}
	}
	return true
}

// setVoidTiles turns rock with no floor anywhere around it into void.
// Out of bounds counts as rock.
func setVoidTiles(b *model.Board) {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			p := model.Position{X: x, Y: y}
			if b.Tile(p).Type != model.WALL {
				continue
			}
			enclosed := true
			for _, n := range b.Neighbors8(p) {
				if t := b.Tile(n).Type; t != model.WALL && t != model.VOID {
					enclosed = false
					break
				}
			}
			if enclosed {
				b.Tile(p).Type = model.VOID
			}
		}
	}
}

func wallFraction(b *model.Board) float64 {
	return float64(b.Count(model.WALL)) / float64(b.Width*b.Height)
}

func floorNeighbors(b *model.Board, p model.Position) int {
	n := 0
	for _, o := range b.Neighbors(p) {
		if b.Tile(o).Type == model.FLOOR {
			n++
		}
	}
	return n
}

// PlaceSites marks spawns and exits on dead-end-like floor cells, the ones
// with exactly three floor neighbors.
func (e *Engine) PlaceSites(b *model.Board, spawns, exits int) ([]model.Position, []model.Position, error) {
	candidates := make([]model.Position, 0)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			p := model.Position{X: x, Y: y}
			if b.Tile(p).Type == model.FLOOR && floorNeighbors(b, p) == 3 {
				candidates = append(candidates, p)
			}
		}
	}
	if len(candidates) < spawns+exits {
		return nil, nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughSites, len(candidates), spawns+exits)
	}
	e.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	spawnAt := candidates[:spawns]
	exitAt := candidates[spawns : spawns+exits]
	for _, p := range spawnAt {
		b.Tile(p).Type = model.SPAWN
	}
	for _, p := range exitAt {
		b.Tile(p).Type = model.EXIT
	}
	return spawnAt, exitAt, nil
}

// SpawnStartingPieces puts up to PiecesPerPlayer real pieces, numbered from
// 1, on the floor around the player's spawn.
func (e *Engine) SpawnStartingPieces(b *model.Board, player *model.Player) {
	number := 1
	for _, n := range b.Neighbors(player.Spawn) {
		if number > e.Config.PiecesPerPlayer {
			return
		}
		if b.Tile(n).Type != model.FLOOR {
			continue
		}
		b.AddPiece(&model.Piece{Number: number, Position: n, Owner: player.Name, Color: player.Color})
		number++
	}
}

// NewGame generates the board, seats the players on their spawns in roster
// order and computes everyone's first view.
func (e *Engine) NewGame(ctx context.Context, infos []model.PlayerInfo) (*Game, error) {
	ctx, span := telemetry.Tracer("rules").Start(ctx, "game.new")
	defer span.End()

	if len(infos) != e.Config.Players {
		return nil, fmt.Errorf("%w: %d players seated, configured for %d", ErrInvalidConfig, len(infos), e.Config.Players)
	}

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		b, err := e.Generate(ctx, e.Config.Width, e.Config.Height)
		if err != nil {
			return nil, err
		}
		spawns, _, err := e.PlaceSites(b, len(infos), e.Config.Exits())
		if errors.Is(err, ErrNotEnoughSites) {
			log.WithError(err).Debug("regenerating board")
			continue
		}
		if err != nil {
			return nil, err
		}

		g := &Game{Board: b, Players: make([]*model.Player, 0, len(infos))}
		for i, info := range infos {
			p := model.NewPlayer(info, spawns[i], b.Width, b.Height)
			e.SpawnStartingPieces(b, p)
			g.Players = append(g.Players, p)
		}
		for _, p := range g.Players {
			e.Recompute(p, b)
		}
		span.SetAttributes(
			attribute.Int("game.players", len(infos)),
			attribute.Int("game.attempts", attempt),
		)
		return g, nil
	}
	return nil, fmt.Errorf("%w: no board with %d spawn sites", ErrGenerationFailed, len(infos))
}
