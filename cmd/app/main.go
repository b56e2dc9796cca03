package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"betstream/internal/app"
	"betstream/internal/domain"
	"betstream/internal/engine"
	"betstream/internal/infra"
	"betstream/internal/infra/stream"
	"betstream/internal/service"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Read-side service and Sequencer
	markets := service.NewMarketService(cfg.Engine.LiabilityAlert)
	seq := engine.NewSequencer(cfg.Engine.InboxSize, recorderOrNil(bootstrap), markets.Publish)

	// Start Sequencer in its own goroutine (The Hotpath Loop)
	go seq.Run(ctx)
	slog.InfoContext(ctx, "✅ Sequencer (Hotpath) started")

	// 5. Session keep-alive
	keepAlive := infra.NewKeepAliveClient(
		cfg.API.Session.KeepAliveURL,
		cfg.API.Stream.AppKey,
		cfg.API.Stream.SessionToken,
		cfg.API.Session.PollIntervalSec,
	)
	if cfg.API.Session.KeepAliveURL != "" {
		if err := keepAlive.Start(ctx); err != nil {
			slog.Error("Failed to start session keep-alive", slog.Any("error", err))
		}
		defer keepAlive.Stop()
	}

	// 6. Stream Worker (Gateway)
	nextSeq := uint64(0)
	worker := stream.NewWorker(
		cfg.API.Stream.WSURL,
		cfg.API.Stream.AppKey,
		keepAlive.Token,
		cfg.API.Stream.Markets,
		cfg.API.Stream.LadderLevels,
		cfg.API.Stream.ConflateMS,
		seq.Inbox(),
		&nextSeq,
	)
	if err := worker.Connect(ctx); err != nil {
		slog.Error("Failed to connect stream", slog.Any("error", err))
	}
	defer worker.Disconnect()
	slog.InfoContext(ctx, "✅ StreamWorker started", slog.Int("markets", len(cfg.API.Stream.Markets)))

	slog.InfoContext(ctx, "✨ betstream fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}

// recorderOrNil avoids handing the sequencer a typed-nil interface.
func recorderOrNil(b *app.Bootstrap) domain.StreamStore {
	if b.Recorder == nil {
		return nil
	}
	return b.Recorder
}
