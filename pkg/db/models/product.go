package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stagepass/stagepass-backend/pkg/enums"
)

// Product is an artist-owned sellable item in the native catalog. Only
// published products are purchasable.
type Product struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID      uuid.UUID             `gorm:"column:artist_id;type:uuid;not null;index"`
	Title         string                `gorm:"column:title;not null"`
	Description   *string               `gorm:"column:description"`
	Category      enums.ProductCategory `gorm:"column:category;type:text;not null"`
	Price         decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	Status        enums.ProductStatus   `gorm:"column:status;type:text;not null;default:'draft'"`
	FileKey       *string               `gorm:"column:file_key"`
	ExternalURL   *string               `gorm:"column:external_url"`
	ViewCount     int                   `gorm:"column:view_count;not null;default:0"`
	PurchaseCount int                   `gorm:"column:purchase_count;not null;default:0"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
