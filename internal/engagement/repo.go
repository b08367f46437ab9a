package engagement

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
)

// Repository manages persistence for fan engagement tallies.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, row *models.FanEngagement) error
	Save(ctx context.Context, row *models.FanEngagement) error
	FindPairForUpdate(ctx context.Context, artistID, fanID uuid.UUID) (*models.FanEngagement, error)
	ListTopByArtist(ctx context.Context, artistID uuid.UUID, limit int) ([]models.FanEngagement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an engagement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, row *models.FanEngagement) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) Save(ctx context.Context, row *models.FanEngagement) error {
	return r.db.WithContext(ctx).
		Model(&models.FanEngagement{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"purchase_count":  row.PurchaseCount,
			"total_spent":     row.TotalSpent,
			"last_engaged_at": row.LastEngagedAt,
		}).Error
}

func (r *repository) FindPairForUpdate(ctx context.Context, artistID, fanID uuid.UUID) (*models.FanEngagement, error) {
	var row models.FanEngagement
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("artist_id = ? AND fan_id = ?", artistID, fanID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListTopByArtist(ctx context.Context, artistID uuid.UUID, limit int) ([]models.FanEngagement, error) {
	var rows []models.FanEngagement
	if err := r.db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		Order("total_spent DESC, last_engaged_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
