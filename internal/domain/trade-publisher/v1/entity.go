package tradepublisherv1

import (
	"encoding/json"
	"time"

	orderbookv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/orderbook/v1"
)

// TradeEventPayload is the wire form of an executed trade on the outbound
// trade topic.
type TradeEventPayload struct {
	TradeID   string    `json:"tradeID"`
	Symbol    string    `json:"symbol"`
	Price     int64     `json:"price"`
	Quantity  int64     `json:"quantity"`
	Buyer     string    `json:"buyer"`
	Seller    string    `json:"seller"`
	TakerSide string    `json:"takerSide"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateFromTrade creates a trade event from an executed trade.
func CreateFromTrade(trade orderbookv1.Trade) *TradeEventPayload {
	return &TradeEventPayload{
		TradeID:   trade.ID,
		Symbol:    trade.Symbol,
		Price:     trade.Price,
		Quantity:  trade.Quantity,
		Buyer:     trade.Buyer,
		Seller:    trade.Seller,
		TakerSide: string(trade.TakerSide),
		Timestamp: trade.Timestamp,
	}
}

// ToBytes converts the trade event to a byte array.
func ToBytes(event *TradeEventPayload) []byte {
	data, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	return data
}

// FromBytes converts a byte array to a trade event.
func FromBytes(data []byte) *TradeEventPayload {
	var event TradeEventPayload
	if err := json.Unmarshal(data, &event); err != nil {
		return nil
	}
	return &event
}
