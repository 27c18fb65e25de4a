package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tradepublisherv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/trade-publisher/v1"
	"github.com/aatishgupta25/real-time-order-matching-engine/internal/infrastructure/questdb/trade"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/config"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/logger"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/questdb"
	"github.com/segmentio/kafka-go"
)

const (
	batchSize     = 500
	flushInterval = 5 * time.Second
)

const createTradesTable = `CREATE TABLE IF NOT EXISTS trades (
	timestamp TIMESTAMP,
	trade_id STRING,
	symbol SYMBOL,
	price LONG,
	quantity LONG,
	buyer STRING,
	seller STRING,
	taker_side SYMBOL
) TIMESTAMP(timestamp) PARTITION BY DAY`

var cfg *config.ArchiverConfig
var log *logger.Logger

func init() {
	cfg = &config.ArchiverConfig{}
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
	go func() {
		sig := <-sigChan
		log.Info("received shutdown signal", logger.Field{
			Key:   "signal",
			Value: sig.String(),
		})
		cancel()
	}()

	client, err := questdb.NewClient(ctx, cfg.QuestDB)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "connect_questdb"})
		return
	}
	defer client.Close()

	if err := client.Exec(ctx, createTradesTable); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "create_trades_table"})
		return
	}

	repo := trade.NewRepository(client)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.TradeFeed.Brokers,
		Topic:    cfg.TradeFeed.Topic,
		GroupID:  cfg.TradeFeed.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	log.Info("trade archiver started",
		logger.Field{Key: "topic", Value: cfg.TradeFeed.Topic},
		logger.Field{Key: "groupID", Value: cfg.TradeFeed.GroupID},
	)

	archiveLoop(ctx, reader, client, repo)

	log.Info("trade archiver shutdown complete")
}

// archiveLoop reads trade events and archives them in batches. A batch is
// flushed when it is full or when the flush interval elapses. Each flush
// runs inside a transaction so a batch lands whole or not at all.
func archiveLoop(ctx context.Context, reader *kafka.Reader, client questdb.QuestDBClient, repo trade.TradeRepository) {
	batch := make([]*trade.ArchivedTrade, 0, batchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	events := make(chan *tradepublisherv1.TradeEventPayload)
	go func() {
		defer close(events)
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "read_trade_event"})
				time.Sleep(100 * time.Millisecond)
				continue
			}

			event := tradepublisherv1.FromBytes(msg.Value)
			if event == nil {
				log.Warn("skipping malformed trade event", logger.Field{
					Key:   "offset",
					Value: msg.Offset,
				})
				continue
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		err := questdb.WithinTx(ctx, client, func(txCtx context.Context) error {
			return repo.StoreBatch(txCtx, batch)
		})
		if err != nil {
			log.ErrorContext(ctx, err,
				logger.Field{Key: "action", Value: "archive_trades"},
				logger.Field{Key: "batchSize", Value: len(batch)},
			)
			return
		}
		log.Info("archived trades", logger.Field{Key: "count", Value: len(batch)})
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			// final flush happens on a fresh context, the main one is gone
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if len(batch) > 0 {
				err := questdb.WithinTx(flushCtx, client, func(txCtx context.Context) error {
					return repo.StoreBatch(txCtx, batch)
				})
				if err != nil {
					log.Error(err, logger.Field{Key: "action", Value: "final_flush"})
				}
			}
			flushCancel()
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			batch = append(batch, &trade.ArchivedTrade{
				Timestamp: event.Timestamp,
				TradeID:   event.TradeID,
				Symbol:    event.Symbol,
				Price:     event.Price,
				Quantity:  event.Quantity,
				Buyer:     event.Buyer,
				Seller:    event.Seller,
				TakerSide: event.TakerSide,
			})
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
