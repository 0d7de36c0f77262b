package main

import (
	"context"
	"os"
	"os/signal"

	"docdbctl/src/cmd"

	"golang.org/x/sys/unix"
)

func main() {
	// cancel in-flight operations on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)

	code := cmd.NewCLI().Execute(ctx)

	stop()
	os.Exit(code)
}
