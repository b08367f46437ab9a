package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stagepass/stagepass-backend/pkg/enums"
)

// Purchase records one buyer's attempt to acquire one product. Amount is the
// price quoted at creation and never tracks later product price changes.
type Purchase struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID           uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null;index"`
	ProductID         uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index"`
	ArtistID          uuid.UUID            `gorm:"column:artist_id;type:uuid;not null;index"`
	Amount            decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentMethod     enums.PaymentRail    `gorm:"column:payment_method;type:text;not null"`
	PaymentIntentID   *string              `gorm:"column:payment_intent_id;uniqueIndex"`
	CheckoutSessionID *string              `gorm:"column:checkout_session_id;index"`
	Status            enums.PurchaseStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	DownloadCount     int                  `gorm:"column:download_count;not null;default:0"`
	CompletedAt       *time.Time           `gorm:"column:completed_at"`
	RefundedAt        *time.Time           `gorm:"column:refunded_at"`
	Product           *Product             `gorm:"foreignKey:ProductID"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
