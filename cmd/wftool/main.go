package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mibandtool/wftool/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// graceful shutdown: a signal cancels in-flight requests and the browse UI
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, version, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
