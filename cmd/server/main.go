package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/SantaCall/internal/adapters/http"
	"github.com/dkeye/SantaCall/internal/adapters/rtc"
	wsignal "github.com/dkeye/SantaCall/internal/adapters/signal"
	"github.com/dkeye/SantaCall/internal/app"
	"github.com/dkeye/SantaCall/internal/app/call"
	"github.com/dkeye/SantaCall/internal/config"
	"github.com/dkeye/SantaCall/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(config.ParseLevel(cfg.LogLevel))
	cfg.Watch(zerolog.SetGlobalLevel)

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("failed to open storage")
	}

	api, err := rtc.NewAPI()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build media API")
	}
	rtcCfg := rtc.DefaultWebRTCConfig(cfg.Agent.ICEServers)

	reg := app.NewRegistry(func(token string) (*app.Client, error) {
		bridge, err := rtc.NewBridge(api, rtcCfg, token)
		if err != nil {
			return nil, err
		}
		transport := rtc.NewTransport(rtc.Config{
			AgentURL:   cfg.Agent.URL,
			ICEServers: cfg.Agent.ICEServers,
		}, api, bridge)
		return app.NewClient(token, app.ClientDeps{
			Transport: transport,
			Media:     bridge,
			Settings:  db,
			Call: call.Config{
				Target:         cfg.Agent.Target,
				ConnectTimeout: cfg.Call.ConnectTimeout,
				HangupTimeout:  cfg.Agent.HangupTimeout,
			},
			NiceListDuration: cfg.UI.NiceListDuration,
			Policy:           app.SimplePolicy{},
			NewSink:          wsignal.NewSink,
		})
	})
	starts := wsignal.NewRateLimiter(1, cfg.Call.StartInterval)

	r := router.SetupRouter(ctx, cfg, reg, starts)
	addr := cfg.Addr()

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Int("christmas_year", cfg.ChristmasYear).Msg("Santa call server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	reg.CloseAll()
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("close storage")
	}
	log.Info().Msg("Server exited gracefully")
}
