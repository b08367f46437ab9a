package revenue

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
)

// Repository manages persistence for artist revenue buckets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bucket *models.ArtistRevenue) error
	Save(ctx context.Context, bucket *models.ArtistRevenue) error
	FindLatest(ctx context.Context, artistID uuid.UUID) (*models.ArtistRevenue, error)
	FindLatestForUpdate(ctx context.Context, artistID uuid.UUID) (*models.ArtistRevenue, error)
	ListByArtist(ctx context.Context, artistID uuid.UUID) ([]models.ArtistRevenue, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a revenue repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, bucket *models.ArtistRevenue) error {
	return r.db.WithContext(ctx).Create(bucket).Error
}

func (r *repository) Save(ctx context.Context, bucket *models.ArtistRevenue) error {
	return r.db.WithContext(ctx).
		Model(&models.ArtistRevenue{}).
		Where("id = ?", bucket.ID).
		Updates(map[string]any{
			"total_revenue":     bucket.TotalRevenue,
			"pending_revenue":   bucket.PendingRevenue,
			"withdrawn_revenue": bucket.WithdrawnRevenue,
			"monthly_revenue":   bucket.MonthlyRevenue,
			"monthly_sales":     bucket.MonthlySales,
		}).Error
}

func (r *repository) FindLatest(ctx context.Context, artistID uuid.UUID) (*models.ArtistRevenue, error) {
	var bucket models.ArtistRevenue
	if err := r.db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		Order("year DESC, month DESC").
		First(&bucket).Error; err != nil {
		return nil, err
	}
	return &bucket, nil
}

// FindLatestForUpdate takes a row lock so concurrent writers of the same
// artist's bucket serialize instead of interleaving read-modify-write.
func (r *repository) FindLatestForUpdate(ctx context.Context, artistID uuid.UUID) (*models.ArtistRevenue, error) {
	var bucket models.ArtistRevenue
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("artist_id = ?", artistID).
		Order("year DESC, month DESC").
		First(&bucket).Error; err != nil {
		return nil, err
	}
	return &bucket, nil
}

func (r *repository) ListByArtist(ctx context.Context, artistID uuid.UUID) ([]models.ArtistRevenue, error) {
	var buckets []models.ArtistRevenue
	if err := r.db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		Order("year DESC, month DESC").
		Find(&buckets).Error; err != nil {
		return nil, err
	}
	return buckets, nil
}
