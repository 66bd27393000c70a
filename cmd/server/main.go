// matchday-server runs the simulation service: HTTP API, live websocket
// streaming, prometheus metrics, sqlite archive.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"matchday/internal/api"
	"matchday/internal/config"
	"matchday/internal/replay"
	"matchday/internal/telemetry"
)

func main() {
	_ = godotenv.Load()
	telemetry.Init(telemetry.ParseLogLevel(os.Getenv("MATCHDAY_LOG_LEVEL")))

	serverCfg := config.ServerFromEnv()
	limits := config.SimLimitsFromEnv()
	storageCfg := config.StorageFromEnv()

	archive, err := replay.OpenArchive(storageCfg.ArchivePath)
	if err != nil {
		telemetry.Errorf("open archive: %v", err)
		os.Exit(1)
	}
	defer archive.Close()

	if err := api.StartDebugServer(api.ObservabilityConfig{
		Enabled:    true,
		ListenAddr: serverCfg.DebugAddr,
	}); err != nil {
		telemetry.Errorf("debug server: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(serverCfg, limits, archive)
	if err := srv.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		telemetry.Errorf("server: %v", err)
		os.Exit(1)
	}
	telemetry.Infof("shutdown complete")
}
