package drops

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/pagination"
)

// Repository manages persistence for drops and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, drop *models.MerchDrop) error
	Save(ctx context.Context, drop *models.MerchDrop) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.MerchDrop, error)
	ListByArtist(ctx context.Context, artistID uuid.UUID, page pagination.Params) ([]models.MerchDrop, error)
	ReplaceItems(ctx context.Context, dropID uuid.UUID, items []models.MerchDropItem) error
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a drop repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, drop *models.MerchDrop) error {
	return r.db.WithContext(ctx).Create(drop).Error
}

func (r *repository) Save(ctx context.Context, drop *models.MerchDrop) error {
	return r.db.WithContext(ctx).
		Omit("Items").
		Save(drop).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.MerchDrop{}, "id = ?", id).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MerchDrop, error) {
	var drop models.MerchDrop
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		First(&drop, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &drop, nil
}

func (r *repository) ListByArtist(ctx context.Context, artistID uuid.UUID, page pagination.Params) ([]models.MerchDrop, error) {
	q := r.db.WithContext(ctx).Where("artist_id = ?", artistID)
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var drops []models.MerchDrop
	if err := q.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(page.Limit)).
		Find(&drops).Error; err != nil {
		return nil, err
	}
	return drops, nil
}

// ReplaceItems swaps the drop's item set wholesale.
func (r *repository) ReplaceItems(ctx context.Context, dropID uuid.UUID, items []models.MerchDropItem) error {
	if err := r.db.WithContext(ctx).
		Delete(&models.MerchDropItem{}, "drop_id = ?", dropID).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].DropID = dropID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.MerchDrop{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}
