package purchases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	"github.com/stagepass/stagepass-backend/pkg/pagination"
)

// Repository manages persistence for the purchase ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, purchase *models.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Purchase, error)
	FindByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Purchase, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	MarkRefunded(ctx context.Context, id uuid.UUID, at time.Time) error
	SetPaymentIntentID(ctx context.Context, id uuid.UUID, intentID string) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, page pagination.Params) ([]models.Purchase, error)
	IncrementDownloadCount(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a purchase repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindByIDForUpdate locks the purchase row so concurrent webhook redeliveries
// serialize on the completion transition.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).
		First(&purchase, "payment_intent_id = ?", intentID).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) FindByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).
		First(&purchase, "checkout_session_id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.PurchaseStatusCompleted,
			"completed_at": at,
		}).Error
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ?", id).
		UpdateColumn("status", enums.PurchaseStatusFailed).Error
}

func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      enums.PurchaseStatusRefunded,
			"refunded_at": at,
		}).Error
}

func (r *repository) SetPaymentIntentID(ctx context.Context, id uuid.UUID, intentID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ?", id).
		UpdateColumn("payment_intent_id", intentID).Error
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, page pagination.Params) ([]models.Purchase, error) {
	q := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID)
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var purchases []models.Purchase
	if err := q.
		Preload("Product").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(page.Limit)).
		Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *repository) IncrementDownloadCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
}
