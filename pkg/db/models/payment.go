package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/payments-service/pkg/enums"
)

// Payment is the persisted record of a single charge attempt for an order.
type Payment struct {
	ID            int64               `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID       int64               `gorm:"column:order_id;not null;index:idx_payments_order_id"`
	UserID        int64               `gorm:"column:user_id;not null;index:idx_payments_user_id"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	Currency      string              `gorm:"column:currency;not null;default:'USD'"`
	PaymentMethod string              `gorm:"column:payment_method;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;not null"`
	TransactionID *string             `gorm:"column:transaction_id"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}
