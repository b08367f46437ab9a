package catalog

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

// StorefrontRepository manages external storefront connections and the
// mirrored remote catalog rows the sync job maintains.
type StorefrontRepository interface {
	WithTx(tx *gorm.DB) StorefrontRepository
	FindConnectionByArtist(ctx context.Context, artistID uuid.UUID) (*models.StorefrontConnection, error)
	ListConnected(ctx context.Context, provider enums.CatalogProvider) ([]models.StorefrontConnection, error)
	SaveConnection(ctx context.Context, conn *models.StorefrontConnection) error
	MarkSynced(ctx context.Context, connectionID uuid.UUID, at time.Time) error
	UpsertMirrorProduct(ctx context.Context, row *models.StorefrontProduct) error
	FindMirrorByID(ctx context.Context, id uuid.UUID) (*models.StorefrontProduct, error)
	ListMirrorByArtist(ctx context.Context, artistID uuid.UUID, filters ListFilters) ([]models.StorefrontProduct, error)
}

type storefrontRepository struct {
	db *gorm.DB
}

// NewStorefrontRepository returns a storefront repository bound to the provided database.
func NewStorefrontRepository(db *gorm.DB) StorefrontRepository {
	return &storefrontRepository{db: db}
}

func (r *storefrontRepository) WithTx(tx *gorm.DB) StorefrontRepository {
	if tx == nil {
		return r
	}
	return &storefrontRepository{db: tx}
}

func (r *storefrontRepository) FindConnectionByArtist(ctx context.Context, artistID uuid.UUID) (*models.StorefrontConnection, error) {
	var conn models.StorefrontConnection
	if err := r.db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		First(&conn).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *storefrontRepository) ListConnected(ctx context.Context, provider enums.CatalogProvider) ([]models.StorefrontConnection, error) {
	var conns []models.StorefrontConnection
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND status = ?", provider, enums.ConnectionStatusConnected).
		Find(&conns).Error; err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *storefrontRepository) SaveConnection(ctx context.Context, conn *models.StorefrontConnection) error {
	return r.db.WithContext(ctx).Save(conn).Error
}

func (r *storefrontRepository) MarkSynced(ctx context.Context, connectionID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.StorefrontConnection{}).
		Where("id = ?", connectionID).
		UpdateColumn("last_synced_at", at).Error
}

// UpsertMirrorProduct is keyed on (connection, remote id) so sync replays are
// idempotent per remote object.
func (r *storefrontRepository) UpsertMirrorProduct(ctx context.Context, row *models.StorefrontProduct) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "connection_id"}, {Name: "remote_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"remote_variant_id", "title", "price", "status", "url", "last_synced_at", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *storefrontRepository) FindMirrorByID(ctx context.Context, id uuid.UUID) (*models.StorefrontProduct, error) {
	var row models.StorefrontProduct
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *storefrontRepository) ListMirrorByArtist(ctx context.Context, artistID uuid.UUID, filters ListFilters) ([]models.StorefrontProduct, error) {
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

	var rows []models.StorefrontProduct
	if err := q.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(filters.Page.Limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
