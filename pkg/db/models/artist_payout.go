package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stagepass/stagepass-backend/pkg/enums"
)

// ArtistPayout is one request to move pending revenue to an artist's external
// account. Creation debits the revenue bucket optimistically; ReversedAt marks
// that a terminal failed/canceled webhook has compensated that debit, and
// guards against double reversal on redelivery.
type ArtistPayout struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID       uuid.UUID          `gorm:"column:artist_id;type:uuid;not null;index"`
	Amount         decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency       string             `gorm:"column:currency;not null;default:'usd'"`
	StripePayoutID string             `gorm:"column:stripe_payout_id;uniqueIndex"`
	Status         enums.PayoutStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ArrivalDate    *time.Time         `gorm:"column:arrival_date"`
	FailureReason  *string            `gorm:"column:failure_reason"`
	ReversedAt     *time.Time         `gorm:"column:reversed_at"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
