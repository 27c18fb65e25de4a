package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// orderRequest is the wire form of an inbound order, matching what the
// matching service's order reader expects.
type orderRequest struct {
	UserID   string `json:"userID"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Kind     string `json:"kind"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price,omitempty"`
}

func generateRandomID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	var result strings.Builder
	for i := 0; i < length; i++ {
		result.WriteByte(charset[rand.Intn(len(charset))])
	}
	return result.String()
}

// generateOrders creates realistic order traffic around a base price.
func generateOrders(count int, symbol string, basePrice, priceSpread int64) []orderRequest {
	orders := make([]orderRequest, count)

	for i := 0; i < count; i++ {
		// 70% limit, 30% market
		kind := "limit"
		if rand.Float64() < 0.3 {
			kind = "market"
		}

		side := "sell"
		if rand.Float64() < 0.5 {
			side = "buy"
		}

		quantity := int64(rand.Intn(100) + 1)

		var price int64
		if kind == "limit" {
			// buys lean below the base price, sells above
			offset := rand.Int63n(priceSpread + 1)
			if side == "buy" {
				price = basePrice - offset
			} else {
				price = basePrice + offset
			}
			if price <= 0 {
				price = basePrice
			}
		}

		orders[i] = orderRequest{
			UserID:   generateRandomID(rand.Intn(4) + 6),
			Symbol:   symbol,
			Side:     side,
			Kind:     kind,
			Quantity: quantity,
			Price:    price,
		}
	}

	return orders
}

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic       = flag.String("topic", "orders", "Kafka topic name")
		file        = flag.String("file", "", "JSON file with orders (optional, generates orders if not provided)")
		delay       = flag.Duration("delay", 100*time.Millisecond, "Delay between sending orders")
		count       = flag.Int("count", 1000, "Number of orders to generate")
		symbol      = flag.String("symbol", "BTC-USD", "Symbol to trade")
		basePrice   = flag.Int64("base-price", 15000, "Base price for generated orders")
		priceSpread = flag.Int64("price-spread", 200, "Price spread range")
	)
	flag.Parse()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()

	var orders []orderRequest
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read file %s: %v", *file, err)
		}
		if err := json.Unmarshal(data, &orders); err != nil {
			log.Fatalf("Failed to parse JSON from file: %v", err)
		}
		log.Printf("Loaded %d orders from file: %s", len(orders), *file)
	} else {
		orders = generateOrders(*count, *symbol, *basePrice, *priceSpread)
		log.Printf("Generated %d orders", len(orders))
	}

	log.Printf("Sending orders to Kafka broker: %s, topic: %s", *brokers, *topic)

	for i, order := range orders {
		orderJSON, err := json.Marshal(order)
		if err != nil {
			log.Printf("Failed to marshal order %d: %v", i+1, err)
			continue
		}

		msg := kafka.Message{
			Key:   []byte(order.Symbol),
			Value: orderJSON,
			Time:  time.Now(),
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("Failed to send order %d (%s): %v", i+1, order.UserID, err)
			continue
		}

		if (i+1)%100 == 0 || i == len(orders)-1 {
			if order.Kind == "market" {
				log.Printf("Sent order %d/%d: %s | %s %s | Qty: %d",
					i+1, len(orders), order.UserID, order.Kind, order.Side, order.Quantity)
			} else {
				log.Printf("Sent order %d/%d: %s | %s %s | Qty: %d @ %d",
					i+1, len(orders), order.UserID, order.Kind, order.Side, order.Quantity, order.Price)
			}
		}

		if i < len(orders)-1 {
			time.Sleep(*delay)
		}
	}

	marketOrders := 0
	buyOrders := 0
	for _, order := range orders {
		if order.Kind == "market" {
			marketOrders++
		}
		if order.Side == "buy" {
			buyOrders++
		}
	}

	log.Printf("--- Summary ---")
	log.Printf("Total Orders: %d", len(orders))
	log.Printf("Market Orders: %d", marketOrders)
	log.Printf("Limit Orders: %d", len(orders)-marketOrders)
	log.Printf("Buy Orders: %d", buyOrders)
	log.Printf("Sell Orders: %d", len(orders)-buyOrders)
}
