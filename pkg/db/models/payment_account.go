package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentAccount records an artist's linked processor account. PayoutsEnabled
// mirrors the processor's capability flag and is updated informationally by
// account webhooks; payout requests require a linked, enabled account.
type PaymentAccount struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID         uuid.UUID `gorm:"column:artist_id;type:uuid;not null;uniqueIndex"`
	StripeAccountID  string    `gorm:"column:stripe_account_id;not null;uniqueIndex"`
	PayoutsEnabled   bool      `gorm:"column:payouts_enabled;not null;default:false"`
	DetailsSubmitted bool      `gorm:"column:details_submitted;not null;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
