package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stagepass/stagepass-backend/pkg/enums"
)

// MerchDrop is a time-boxed release grouping one or more products behind an
// access-gating policy. Once published the drop is immutable apart from
// cancellation.
type MerchDrop struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID        uuid.UUID        `gorm:"column:artist_id;type:uuid;not null;index"`
	Title           string           `gorm:"column:title;not null"`
	Description     *string          `gorm:"column:description"`
	StartsAt        *time.Time       `gorm:"column:starts_at"`
	EndsAt          *time.Time       `gorm:"column:ends_at"`
	Gating          enums.DropGating `gorm:"column:gating;type:text;not null;default:'public'"`
	RoomID          *uuid.UUID       `gorm:"column:room_id;type:uuid"`
	EarlyAccessDays int              `gorm:"column:early_access_days;not null;default:0"`
	Status          enums.DropStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	PublishedAt     *time.Time       `gorm:"column:published_at"`
	CancelledAt     *time.Time       `gorm:"column:cancelled_at"`
	ViewCount       int              `gorm:"column:view_count;not null;default:0"`
	PurchaseCount   int              `gorm:"column:purchase_count;not null;default:0"`
	Items           []MerchDropItem  `gorm:"foreignKey:DropID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// MerchDropItem joins a drop to a product with optional per-drop overrides.
// Items are replaced wholesale on drop update and removed with the drop.
type MerchDropItem struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DropID        uuid.UUID        `gorm:"column:drop_id;type:uuid;not null;index"`
	ProductID     uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	PriceOverride *decimal.Decimal `gorm:"column:price_override;type:numeric(12,2)"`
	TitleOverride *string          `gorm:"column:title_override"`
	MaxPerUser    int              `gorm:"column:max_per_user;not null;default:0"`
	Product       *Product         `gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
}
