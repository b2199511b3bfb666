package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qubic-markets/qx-indexer/internal/config"
	"github.com/qubic-markets/qx-indexer/internal/database"
	"github.com/qubic-markets/qx-indexer/internal/indexer"
	"github.com/qubic-markets/qx-indexer/internal/logger"
	"github.com/qubic-markets/qx-indexer/internal/notify"
	"github.com/qubic-markets/qx-indexer/internal/rpc"
	"github.com/qubic-markets/qx-indexer/internal/server"
	"github.com/qubic-markets/qx-indexer/internal/trades"
)

type CLIArgs struct {
	ConfigFile string `arg:"--config,env:CONFIG_FILE" default:"config.toml"`
}

func main() {
	var args CLIArgs
	arg.MustParse(&args)

	cfg, err := config.ReadFile(args.ConfigFile)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DB)
	if err != nil {
		return err
	}

	client := rpc.NewClient(cfg.RPC)

	if status, err := client.GetArchiverStatus(ctx); err != nil {
		log.Warnw("archiver status unavailable", "error", err)
	} else {
		log.Infow("archiver reachable",
			"last_processed_tick", status.LastProcessedTick.TickNumber,
			"epoch", status.LastProcessedTick.Epoch)
	}

	hub := notify.NewHub(log)
	notifier := notify.NewManager(db, hub, log)
	mapper := trades.NewMapper(db, notifier, log)

	engine := indexer.New(cfg.Indexer, client, db, mapper, log)
	srv := server.New(cfg.Server, db, engine, hub, log)

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	eg.Go(func() error {
		return srv.Run(ctx)
	})

	engine.Start(ctx)
	defer engine.Stop()

	return eg.Wait()
}
