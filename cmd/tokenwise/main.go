// Command tokenwise inspects the top holders of a token and their trades.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tokenwise/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args)
	stop()
	os.Exit(code)
}
