package app

import (
	"log/slog"

	"betstream/internal/event"
	"betstream/internal/infra"
	"betstream/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config   *infra.Config
	Recorder *storage.Recorder
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, capture DB)
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping betstream...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Stream capture (optional)
	if cfg.Engine.RecordStream {
		rec, err := storage.NewRecorder(cfg.Engine.RecordPath)
		if err != nil {
			return err
		}
		b.Recorder = rec
		slog.Info("✅ Stream capture enabled")
	}

	// 4. Warm the event pool so the first burst doesn't allocate
	event.Warmup()

	return nil
}
