package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/hxchat/internal/log"
	"github.com/Tyrowin/hxchat/internal/server"
)

func main() {
	config := server.NewConfigFromEnv()

	log.Setup(log.Options{
		Level:       config.LogLevel,
		Development: config.IsDevelopment(),
		File:        config.LogFile,
	})

	srv, err := server.New(config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), srv.Config().ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}
