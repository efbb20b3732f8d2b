package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/WilliamsRotolo/autocaricamento/internal/commands"
	"github.com/WilliamsRotolo/autocaricamento/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	// Cancel the crawl on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.ExecuteContext(ctx)

	if ctx.Err() != nil {
		logger.Info("Received shutdown signal, stopped gracefully")
	}
}
