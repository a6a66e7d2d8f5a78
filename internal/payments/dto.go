package payments

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/payments-service/pkg/db/models"
	"github.com/angelmondragon/payments-service/pkg/enums"
)

const (
	MessageProcessed = "Payment processed successfully"
	MessageFailed    = "Payment failed"
	MessageRefunded  = "Payment refunded successfully"
)

// PaymentRequest is the inbound charge request. Card fields are accepted for
// compatibility with existing clients but are never persisted or logged.
type PaymentRequest struct {
	OrderID        *int64           `json:"orderId" validate:"required"`
	UserID         *int64           `json:"userId" validate:"required"`
	Amount         *decimal.Decimal `json:"amount" validate:"required,gt=0,lte=99999999.99,cents"`
	Currency       string           `json:"currency" validate:"currency"`
	PaymentMethod  string           `json:"paymentMethod" validate:"required,notblank,max=64"`
	CardNumber     string           `json:"cardNumber,omitempty"`
	ExpiryMonth    string           `json:"expiryMonth,omitempty"`
	ExpiryYear     string           `json:"expiryYear,omitempty"`
	CVV            string           `json:"cvv,omitempty"`
	CardHolderName string           `json:"cardHolderName,omitempty"`
}

// PaymentResponse mirrors a stored payment plus an optional message. Every
// field is a pointer so absent values serialize as null.
type PaymentResponse struct {
	ID            *int64               `json:"id"`
	OrderID       *int64               `json:"orderId"`
	UserID        *int64               `json:"userId"`
	Amount        *json.Number         `json:"amount"`
	Currency      *string              `json:"currency"`
	Status        *enums.PaymentStatus `json:"status"`
	PaymentMethod *string              `json:"paymentMethod"`
	TransactionID *string              `json:"transactionId"`
	CreatedAt     *time.Time           `json:"createdAt"`
	UpdatedAt     *time.Time           `json:"updatedAt"`
	Message       *string              `json:"message"`
}

// NewPaymentResponse maps a stored payment. An empty message stays null.
func NewPaymentResponse(p models.Payment, message string) PaymentResponse {
	amount := json.Number(p.Amount.StringFixed(2))
	resp := PaymentResponse{
		ID:            ptr(p.ID),
		OrderID:       ptr(p.OrderID),
		UserID:        ptr(p.UserID),
		Amount:        &amount,
		Currency:      ptr(p.Currency),
		Status:        ptr(p.Status),
		PaymentMethod: ptr(p.PaymentMethod),
		TransactionID: p.TransactionID,
		CreatedAt:     ptr(p.CreatedAt),
		UpdatedAt:     ptr(p.UpdatedAt),
	}
	if message != "" {
		resp.Message = &message
	}
	return resp
}

// MessageResponse carries only a message, every other field null.
func MessageResponse(message string) PaymentResponse {
	return PaymentResponse{Message: &message}
}

func toResponses(rows []models.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewPaymentResponse(row, ""))
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
