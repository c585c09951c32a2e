package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bnema/ghost-idler/internal/ghost"
	"github.com/bnema/ghost-idler/internal/logging"
	"go.uber.org/zap"
)

const logFileName = "ghost.log"

func main() {
	os.Exit(run())
}

func run() int {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}

	cfg := logging.DefaultConfig()
	cfg.OutputPaths = []string{filepath.Join(dir, logFileName), logging.Stderr}

	logger, closer, err := logging.New(cfg)
	if err != nil {
		logger = zap.NewNop()
	} else {
		defer func() {
			_ = logger.Sync()
			_ = closer.Close()
		}()
	}
	logger = logger.Named("ghost").With(zap.Int("pid", os.Getpid()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return ghost.Run(ctx, ghost.Options{Dir: dir, Logger: logger})
}
