package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"

	"github.com/zucenko/ghostdelve/server"
	"github.com/zucenko/ghostdelve/telemetry"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug(".env not loaded")
	}
	cfg, err := server.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("bad configuration")
	}
	if err := cfg.ConfigureLogging(); err != nil {
		log.WithError(err).Fatal("bad configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			log.WithError(err).Warn("telemetry setup failed, running without traces")
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(sctx); err != nil {
					log.WithError(err).Warn("telemetry shutdown")
				}
			}()
		}
	}

	s := Server{
		GameServer: server.NewGameServer(cfg),
	}
	go s.GameServer.Loop(ctx)
	s.routes()

	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: s.router}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(sctx)
	}()

	log.WithFields(log.Fields{
		"port":    cfg.Port,
		"players": cfg.Players,
		"board":   []int{cfg.Width, cfg.Height},
	}).Info("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("http server")
	}
}
