package payments

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/payments-service/pkg/db"
	"github.com/angelmondragon/payments-service/pkg/db/models"
	"github.com/angelmondragon/payments-service/pkg/enums"
)

// Repository is the record store for payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	Save(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id int64) (*models.Payment, error)
	FindLatestByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
	ListByUserID(ctx context.Context, userID int64) ([]models.Payment, error)
	// TransitionStatus moves the row to `to` only while it is still in
	// `from`. It reports false when another writer got there first.
	TransitionStatus(ctx context.Context, id int64, from, to enums.PaymentStatus) (bool, error)
}

type repository struct {
	conn *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{conn: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{conn: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	if payment == nil {
		return gorm.ErrInvalidValue
	}
	return r.conn.WithContext(ctx).Create(payment).Error
}

func (r *repository) Save(ctx context.Context, payment *models.Payment) error {
	if payment == nil || payment.ID == 0 {
		return gorm.ErrInvalidValue
	}
	return r.conn.WithContext(ctx).Save(payment).Error
}

// FindByID returns nil without error when no row matches.
func (r *repository) FindByID(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.conn.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if db.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindLatestByOrderID returns the most recent payment for the order, or nil.
func (r *repository) FindLatestByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	var rows []models.Payment
	err := r.conn.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repository) ListByUserID(ctx context.Context, userID int64) ([]models.Payment, error) {
	rows := make([]models.Payment, 0)
	err := r.conn.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) TransitionStatus(ctx context.Context, id int64, from, to enums.PaymentStatus) (bool, error) {
	res := r.conn.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
