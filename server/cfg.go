package server

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"

	"github.com/zucenko/ghostdelve/rules"
)

// Config is read from the environment; see LoadConfig.
type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	Players     int           `env:"GHOST_PLAYERS" envDefault:"2"`
	Width       int           `env:"GHOST_BOARD_WIDTH" envDefault:"100"`
	Height      int           `env:"GHOST_BOARD_HEIGHT" envDefault:"50"`
	FloorTarget float64       `env:"GHOST_FLOOR_TARGET" envDefault:"0.35"`
	ClearRadius int           `env:"GHOST_CLEAR_RADIUS" envDefault:"2"`
	FogRadius   int           `env:"GHOST_FOG_RADIUS" envDefault:"4"`
	Actions     int           `env:"GHOST_ACTIONS" envDefault:"3"`
	ExitsToWin  int           `env:"GHOST_EXITS_TO_WIN" envDefault:"3"`
	TurnTimeout time.Duration `env:"GHOST_TURN_TIMEOUT" envDefault:"60s"`
	// MaxGames caps concurrent games; 0 means no cap.
	MaxGames int `env:"GHOST_MAX_GAMES"`
	// Seed 0 draws a fresh seed per game.
	Seed     int64  `env:"GHOST_SEED"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON"`
	// tracing is exported only when a collector is configured
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func LoadConfig() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Rules().Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// DefaultConfig is LoadConfig with an empty environment.
func DefaultConfig() Config {
	d := rules.DefaultConfig()
	return Config{
		Port:        "8080",
		Players:     d.Players,
		Width:       d.Width,
		Height:      d.Height,
		FloorTarget: d.FloorTarget,
		ClearRadius: d.ClearRadius,
		FogRadius:   d.FogRadius,
		Actions:     d.ActionsPerPiece,
		ExitsToWin:  d.ExitsToWin,
		TurnTimeout: time.Minute,
		LogLevel:    "info",
	}
}

func (c Config) Rules() rules.Config {
	r := rules.DefaultConfig()
	r.Width, r.Height, r.Players = c.Width, c.Height, c.Players
	r.FloorTarget = c.FloorTarget
	r.ClearRadius, r.FogRadius = c.ClearRadius, c.FogRadius
	r.ActionsPerPiece = c.Actions
	r.ExitsToWin = c.ExitsToWin
	return r
}

// NewRand returns the random source for the n-th game. A configured seed
// makes every game reproducible; otherwise each game gets a crypto seed.
func (c Config) NewRand(n int64) *rand.Rand {
	if c.Seed != 0 {
		return rand.New(rand.NewSource(c.Seed + n))
	}
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		log.WithError(err).Warn("crypto seed unavailable, using clock")
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
}

// ConfigureLogging applies LOG_LEVEL and LOG_JSON to the global logger.
func (c Config) ConfigureLogging() error {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	if c.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}
