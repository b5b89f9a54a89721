package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pentaring/meshcore/internal/config"
	"github.com/pentaring/meshcore/internal/entrypoint"
)

var (
	root         = flag.Bool("root", false, "become the root slot (node id fixed to \"root\")")
	qemu         = flag.Bool("qemu", false, "use the QEMU emulator wiring instead of native device wiring")
	nodeID       = flag.String("node-id", "", "this node's identifier, as seen by the observer HTTP surface")
	assetsDir    = flag.String("assets-dir", "", "override ASSETS_DIR")
	pysimURL     = flag.String("pysim-url", "", "override PYSIM_URL")
	observerAddr = flag.String("observer-addr", "", "HTTP bind address for the observer surface")
	verbose      = flag.Bool("v", false, "enable verbose logging")
)

func main() {
	flag.Parse()

	opts := &slog.HandlerOptions{}
	if *verbose {
		opts.Level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)

	id := *nodeID
	if *root {
		id = "root"
	}
	if id == "" {
		slog.Error("noded: --node-id is required unless --root is set")
		os.Exit(1)
	}

	cfg := config.Resolve(*assetsDir, *pysimURL, *observerAddr, id, *root, *qemu)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()

	if err := entrypoint.Run(ctx, cfg, reg); err != nil {
		slog.Error("noded: runtime error", "err", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a runtime error to a process exit code: 0 on clean
// shutdown, nonzero otherwise (e.g. the simulation controller was
// unreachable at startup).
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
