package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stagepass/stagepass-backend/pkg/enums"
)

// StorefrontConnection links an artist to an external commerce backend. The
// provider field drives catalog dispatch; the external provider is usable only
// while the connection status is connected.
type StorefrontConnection struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID     uuid.UUID              `gorm:"column:artist_id;type:uuid;not null;uniqueIndex"`
	Provider     enums.CatalogProvider  `gorm:"column:provider;type:text;not null;default:'native'"`
	Status       enums.ConnectionStatus `gorm:"column:status;type:text;not null;default:'disconnected'"`
	MerchantID   *string                `gorm:"column:merchant_id"`
	TokenRef     *string                `gorm:"column:token_ref"`
	LastSyncedAt *time.Time             `gorm:"column:last_synced_at"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// StorefrontProduct mirrors one remote catalog object. Rows are upserted by
// the sync job keyed on (connection, remote id) and carry the provider-side
// identifiers needed to correlate variants and prices.
type StorefrontProduct struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ConnectionID    uuid.UUID             `gorm:"column:connection_id;type:uuid;not null;uniqueIndex:idx_storefront_product_remote"`
	ArtistID        uuid.UUID             `gorm:"column:artist_id;type:uuid;not null;index"`
	RemoteID        string                `gorm:"column:remote_id;not null;uniqueIndex:idx_storefront_product_remote"`
	RemoteVariantID *string               `gorm:"column:remote_variant_id"`
	Title           string                `gorm:"column:title;not null"`
	Category        enums.ProductCategory `gorm:"column:category;type:text;not null;default:'merch_link'"`
	Price           decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	Status          enums.ProductStatus   `gorm:"column:status;type:text;not null;default:'published'"`
	URL             *string               `gorm:"column:url"`
	LastSyncedAt    time.Time             `gorm:"column:last_synced_at;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
