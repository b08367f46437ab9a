package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/pagination"
)

// Repository manages persistence for artist payouts and linked payment accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payout *models.ArtistPayout) error
	Save(ctx context.Context, payout *models.ArtistPayout) error
	FindByStripePayoutIDForUpdate(ctx context.Context, stripePayoutID string) (*models.ArtistPayout, error)
	ListByArtist(ctx context.Context, artistID uuid.UUID, page pagination.Params) ([]models.ArtistPayout, error)
	FindPaymentAccount(ctx context.Context, artistID uuid.UUID) (*models.PaymentAccount, error)
	FindPaymentAccountByStripeID(ctx context.Context, stripeAccountID string) (*models.PaymentAccount, error)
	SavePaymentAccount(ctx context.Context, account *models.PaymentAccount) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payouts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payout *models.ArtistPayout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) Save(ctx context.Context, payout *models.ArtistPayout) error {
	return r.db.WithContext(ctx).
		Model(&models.ArtistPayout{}).
		Where("id = ?", payout.ID).
		Updates(map[string]any{
			"status":         payout.Status,
			"arrival_date":   payout.ArrivalDate,
			"failure_reason": payout.FailureReason,
			"reversed_at":    payout.ReversedAt,
		}).Error
}

// FindByStripePayoutIDForUpdate locks the payout row so duplicate terminal
// webhooks serialize on the reversal guard.
func (r *repository) FindByStripePayoutIDForUpdate(ctx context.Context, stripePayoutID string) (*models.ArtistPayout, error) {
	var payout models.ArtistPayout
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("stripe_payout_id = ?", stripePayoutID).
		First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListByArtist(ctx context.Context, artistID uuid.UUID, page pagination.Params) ([]models.ArtistPayout, error) {
	q := r.db.WithContext(ctx).Where("artist_id = ?", artistID)
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var payouts []models.ArtistPayout
	if err := q.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(page.Limit)).
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) FindPaymentAccount(ctx context.Context, artistID uuid.UUID) (*models.PaymentAccount, error) {
	var account models.PaymentAccount
	if err := r.db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindPaymentAccountByStripeID(ctx context.Context, stripeAccountID string) (*models.PaymentAccount, error) {
	var account models.PaymentAccount
	if err := r.db.WithContext(ctx).
		Where("stripe_account_id = ?", stripeAccountID).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) SavePaymentAccount(ctx context.Context, account *models.PaymentAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}
