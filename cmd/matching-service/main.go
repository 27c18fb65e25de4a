package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/aatishgupta25/real-time-order-matching-engine/internal/app/engine"
	"github.com/aatishgupta25/real-time-order-matching-engine/internal/usecase/ledger"
	orderreader "github.com/aatishgupta25/real-time-order-matching-engine/internal/usecase/order-reader"
	"github.com/aatishgupta25/real-time-order-matching-engine/internal/usecase/snapshot"
	tradepublisher "github.com/aatishgupta25/real-time-order-matching-engine/internal/usecase/trade-publisher"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/config"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/logger"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	if err := config.Load(cfg); err != nil {
		panic(err)
	}

	l, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	log = l
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	rclient := redis.NewClient(log, &cfg.Redis)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "connect_redis",
		})
		return
	}

	tradeLedger := ledger.NewLedger(rclient, log)
	oReader := orderreader.NewReader(cfg.OrderFeed, log)
	tPublisher := tradepublisher.NewPublisher(cfg.TradePublisher, log)
	snapshotStore := snapshot.NewStore(rclient, log)

	engine := app.NewEngine(
		tradeLedger,
		oReader,
		tPublisher,
		snapshotStore,
		log,
		cfg,
	)

	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "start_engine",
		})
		return
	}

	log.Info("matching service started",
		logger.Field{Key: "symbols", Value: cfg.Symbols},
		logger.Field{Key: "matchingMode", Value: cfg.MatchingMode},
	)

	sig := <-sigChan
	log.Info("received shutdown signal", logger.Field{
		Key:   "signal",
		Value: sig.String(),
	})

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "stop_engine",
		})
	}

	if err := tPublisher.Close(); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "close_trade_publisher",
		})
	}

	if err := rclient.Disconnect(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "disconnect_redis",
		})
	}

	log.Info("matching service shutdown complete")
}
