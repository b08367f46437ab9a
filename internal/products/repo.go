package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	"github.com/stagepass/stagepass-backend/pkg/pagination"
)

// ListFilters narrows a catalog listing.
type ListFilters struct {
	Status   *enums.ProductStatus
	Category *enums.ProductCategory
	Search   string
	Page     pagination.Params
}

// Repository manages persistence for the native product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByArtist(ctx context.Context, artistID uuid.UUID, filters ListFilters) ([]models.Product, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	IncrementPurchaseCount(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a product repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListByArtist(ctx context.Context, artistID uuid.UUID, filters ListFilters) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Where("artist_id = ?", artistID)
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if filters.Category != nil {
		q = q.Where("category = ?", *filters.Category)
	}
	if filters.Search != "" {
		q = q.Where("title ILIKE ?", "%"+filters.Search+"%")
	}
	cursor, err := pagination.ParseCursor(filters.Page.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var products []models.Product
	if err := q.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(filters.Page.Limit)).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *repository) IncrementPurchaseCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("purchase_count", gorm.Expr("purchase_count + 1")).Error
}
