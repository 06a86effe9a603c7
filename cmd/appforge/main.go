package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"appforge/internal/codegen"
	"appforge/internal/config"
	"appforge/internal/database"
	"appforge/internal/events"
	"appforge/internal/httpapi"
	"appforge/internal/llm/client"
	"appforge/internal/llm/tools"
	"appforge/internal/logging"
	"appforge/internal/services"
)

const janitorInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.Setup("info", false)
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)
	events.EnableLogEmitter()

	db, err := database.Init(database.Config{
		Path:   cfg.Database.Path,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init database")
	}

	svcs := services.NewServices(db)

	factory := client.NewModelFactory(cfg.Providers, svcs.Keys)
	registry := tools.NewRegistry()
	saver := codegen.NewSaver(cfg.Generation.OutputDir)
	builder := codegen.NewBuilder(cfg.Generation.BuildCommand)
	broadcaster := codegen.NewBroadcaster(logger)
	defer broadcaster.Close()

	facade := codegen.NewFacade(factory, registry, svcs.History, saver, builder, broadcaster, cfg.Generation)
	svcs.WireGenerator(db, facade)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	facade.Cache().StartJanitor(rootCtx, janitorInterval)

	handler := httpapi.NewHandler(svcs.Apps, svcs.History, svcs.Users, svcs.Keys, facade)
	server := httpapi.New(cfg.Server.Port, logger, handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}
	case <-rootCtx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}
}
