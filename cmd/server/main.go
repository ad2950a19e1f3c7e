// Command server runs the card creator HTTP API: on-demand enrichment, the
// media endpoints used by rendered cards and deck management.
//
// Configuration comes from CONFIG_PATH (fallback ./config.yaml) and
// environment variables. SIGINT and SIGTERM trigger a graceful shutdown.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/havliksimon/anki-card-creator/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
