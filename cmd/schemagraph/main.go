// Command schemagraph edits JSON Schema documents as a graph of nodes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/reoring/schemagraph/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
