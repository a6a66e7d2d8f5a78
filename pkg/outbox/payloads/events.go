package payloads

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/payments-service/pkg/enums"
)

// PaymentEvent is the data carried by payment_completed, payment_failed and
// payment_refunded.
type PaymentEvent struct {
	PaymentID     int64               `json:"payment_id"`
	OrderID       int64               `json:"order_id"`
	UserID        int64               `json:"user_id"`
	Amount        json.Number         `json:"amount"`
	Currency      string              `json:"currency"`
	PaymentMethod string              `json:"payment_method"`
	Status        enums.PaymentStatus `json:"status"`
	TransactionID *string             `json:"transaction_id"`
	OccurredAt    time.Time           `json:"occurred_at"`
}
