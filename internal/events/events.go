package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderShipped   = "OrderShipped"
	EventOrderDelivered = "OrderDelivered"
)

type Envelope struct {
	EventID      string          `json:"event_id"` // uuid
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"` // 1
	OccurredAt   time.Time       `json:"occurred_at"`   // RFC3339
	Producer     string          `json:"producer"`      // e.g. "marketplace-api"
	Payload      json.RawMessage `json:"payload"`
}

type OrderLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderPlacedPayload struct {
	OrderID     int64           `json:"order_id"`
	BuyerID     int64           `json:"buyer_id"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	PlatformFee decimal.Decimal `json:"platform_fee"`
	Lines       []OrderLine     `json:"lines"`
}

type OrderStatusPayload struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
