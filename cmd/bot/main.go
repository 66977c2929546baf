// Command bot joins a game and wanders its pieces at random until the game
// ends.
package main

import (
	"context"
	"errors"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/zucenko/ghostdelve/client"
	"github.com/zucenko/ghostdelve/model"
)

type config struct {
	URL     string `env:"GHOST_URL" envDefault:"ws://localhost:8080/play"`
	Name    string `env:"GHOST_NAME"`
	Actions int    `env:"GHOST_ACTIONS" envDefault:"3"`
	// pause before each turn so humans can follow along
	Think time.Duration `env:"GHOST_BOT_THINK" envDefault:"200ms"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug(".env not loaded")
	}
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.WithError(err).Fatal("parse env")
	}
	if cfg.Name == "" {
		cfg.Name = "bot-" + uuid.NewString()[:8]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := play(ctx, cfg); err != nil {
		log.WithError(err).Fatal("bot stopped")
	}
}

func play(ctx context.Context, cfg config) error {
	dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, err := client.Dial(dctx, cfg.URL)
	if err != nil {
		return err
	}
	defer c.Close()
	go func() {
		<-ctx.Done()
		c.Conn.Close()
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	color := model.Color{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
	if err := c.Join(cfg.Name, color); err != nil {
		return err
	}
	logger := log.WithField("player", cfg.Name)
	logger.WithField("seats", c.Players).Info("joined lobby")

	for {
		msg, err := c.Next()
		if err != nil {
			if errors.Is(err, client.ErrRejected) {
				return err
			}
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		switch m := msg.(type) {
		case model.Roster:
			logger.WithField("players", len(m.Players)).Info("roster")
		case *model.Board:
			if m.GameOver {
				continue
			}
			time.Sleep(cfg.Think)
			turn := client.Wander(m, cfg.Name, cfg.Actions, rng)
			if err := c.SubmitTurn(turn); err != nil {
				// the result may already be on its way
				logger.WithError(err).Warn("turn not sent")
				continue
			}
			logger.WithField("actions", turn.Len()).Debug("turn sent")
		case model.Error:
			logger.WithField("about", m.Player).Warn(m.Text)
		case model.Result:
			logger.WithField("winner", m.Winner).Info(m.Text)
			return nil
		}
	}
}
