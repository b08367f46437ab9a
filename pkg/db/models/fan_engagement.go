package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FanEngagement is the running purchase tally for one (artist, fan) pair.
// TotalSpent is gross, not net: it exists for ranking fans, not accounting.
// Rows are created and updated only by purchase completion and never deleted.
type FanEngagement struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID      uuid.UUID       `gorm:"column:artist_id;type:uuid;not null;uniqueIndex:idx_fan_engagement_pair"`
	FanID         uuid.UUID       `gorm:"column:fan_id;type:uuid;not null;uniqueIndex:idx_fan_engagement_pair"`
	PurchaseCount int             `gorm:"column:purchase_count;not null;default:0"`
	TotalSpent    decimal.Decimal `gorm:"column:total_spent;type:numeric(12,2);not null;default:0"`
	LastEngagedAt time.Time       `gorm:"column:last_engaged_at;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
