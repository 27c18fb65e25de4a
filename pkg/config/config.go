package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/questdb"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/redis"
)

// MustLoad loads the configuration from environment variables and .env file.
// It panics when parsing fails.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load() // .env is optional

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load() // .env is optional

	return env.Parse(cfg)
}

// Config holds the configuration for the matching service.
type Config struct {
	// Symbols whitelists tradable symbols. An empty list admits any
	// non-empty symbol.
	Symbols      []string `env:"SYMBOLS"`
	MatchingMode string   `env:"MATCHING_MODE" envDefault:"fifo"`

	OrderFeed      KafkaConfig  `envPrefix:"ORDER_FEED_"`
	TradePublisher KafkaConfig  `envPrefix:"TRADE_PUBLISHER_"`
	Redis          redis.Config `envPrefix:"REDIS_"`
}

// ArchiverConfig holds the configuration for the trade archiver.
type ArchiverConfig struct {
	TradeFeed KafkaConfig    `envPrefix:"TRADE_FEED_"`
	QuestDB   questdb.Config `envPrefix:"QUESTDB_"`
}

// KafkaConfig holds the configuration for a Kafka consumer or producer.
type KafkaConfig struct {
	Topic   string   `env:"TOPIC,required"`
	GroupID string   `env:"GROUP_ID" envDefault:"matching-engine"`
	Brokers []string `env:"BROKER,required"`
}
