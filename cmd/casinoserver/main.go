// Package main runs the casino server: the Mini App HTTP API, the gRPC
// service, the maintenance scheduler and the profile store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

func main() {
	start := time.Now()
	path := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()
	a, cleanup, err := initializeApp(ctx, configPath(*path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing casino server: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()
	defer func() { _ = a.logger.Sync() }()

	a.logger.Info("casino server initialized", zap.Duration("startup", time.Since(start)))
	if err := a.lifecycle.Run(ctx); err != nil {
		a.logger.Error("server error", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}
