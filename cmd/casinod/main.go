// Command casinod runs one node of the casino chain: it loads a node
// config, opens block storage under its home directory, and serves the
// resulting internal/abciapp.App over CometBFT's ABCI socket or gRPC
// transport. Structure follows the teacher's cmd/ocpd/main.go almost
// line for line; the difference is a YAML config file in place of bare
// flags, since a real node needs identity material and rate limits that
// don't fit on a command line.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cometbft/cometbft/abci/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/happybigmtn/nullspace/internal/abciapp"
	"github.com/happybigmtn/nullspace/internal/config"
	"github.com/happybigmtn/nullspace/internal/engine"
	"github.com/happybigmtn/nullspace/internal/mempool"
	"github.com/happybigmtn/nullspace/internal/metrics"
)

func main() {
	var (
		configPath = flag.String("config", "node.yaml", "path to node YAML config")
		transport  = flag.String("transport", "socket", "ABCI transport (socket|grpc)")
	)
	flag.Parse()

	log := logrus.NewEntry(logrus.StandardLogger())

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	adminKeys, err := cfg.AdminKeySet()
	if err != nil {
		log.Fatalf("decode admin keys: %v", err)
	}
	seedGroupKey, err := cfg.SeedGroupPublicKey()
	if err != nil {
		log.Fatalf("decode seed group key: %v", err)
	}

	registry := prometheus.NewRegistry()
	layerMetrics := metrics.NewLayer(registry)
	storageMetrics := metrics.NewStorage(registry)
	mempoolMetrics := metrics.NewMempool(registry)

	a, err := abciapp.New(abciapp.Config{
		Home:         cfg.Storage.BasePath,
		AdminKeys:    adminKeys,
		SeedGroupKey: seedGroupKey,
		Metrics:      layerMetrics,
		StorageStats: storageMetrics,
		Log:          log,
	})
	if err != nil {
		log.Fatalf("init app: %v", err)
	}

	go serveMetrics(cfg.Network.MetricsPort, registry, log)

	addr := fmt.Sprintf("tcp://0.0.0.0:%d", cfg.Network.Port)
	srv, err := server.NewServer(addr, *transport, a)
	if err != nil {
		log.Fatalf("start abci server: %v", err)
	}

	// internal/mempool is the pre-consensus actor spec.md §5 describes
	// (round-robin-fair backlog, separate from CometBFT's own proposal
	// mempool); Ingestor is its network-facing mailbox. No gossip
	// transport is wired in yet, so Submit currently has no caller besides
	// tests, but the actor itself runs for the life of the process
	// exactly as spec.md's cancellation model requires.
	pool := mempool.New(cfg.Mempool.MaxBacklog, cfg.Mempool.MaxTransactions, mempoolMetrics)
	ingestor := engine.NewIngestor(pool, mempoolMetrics, cfg.Mempool.StreamBufferSize, engine.PolicyBlock, log)

	sup := engine.NewSupervisor(
		func(stop <-chan struct{}) error {
			<-stop
			return srv.Stop()
		},
		ingestor.Run,
		func(stop <-chan struct{}) error {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigCh:
				return nil
			case <-stop:
				return nil
			}
		},
	)

	if err := srv.Start(); err != nil {
		log.Fatalf("abci server start: %v", err)
	}

	if err := sup.Run(); err != nil {
		log.Fatalf("node exited: %v", err)
	}
}

func serveMetrics(port int, registry *prometheus.Registry, log *logrus.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("metrics server stopped")
	}
}
