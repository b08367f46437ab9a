package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ArtistRevenue is one accrual bucket per (artist, calendar month, year),
// created lazily on the first completed purchase or first query.
//
// TotalRevenue is a lifetime-net high-water mark and is never decremented;
// PendingRevenue + WithdrawnRevenue tracks net earnings minus any amounts in
// payouts that later failed and were reversed back into pending.
type ArtistRevenue struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID         uuid.UUID       `gorm:"column:artist_id;type:uuid;not null;uniqueIndex:idx_artist_revenue_bucket"`
	Month            int             `gorm:"column:month;not null;uniqueIndex:idx_artist_revenue_bucket"`
	Year             int             `gorm:"column:year;not null;uniqueIndex:idx_artist_revenue_bucket"`
	TotalRevenue     decimal.Decimal `gorm:"column:total_revenue;type:numeric(12,2);not null;default:0"`
	PendingRevenue   decimal.Decimal `gorm:"column:pending_revenue;type:numeric(12,2);not null;default:0"`
	WithdrawnRevenue decimal.Decimal `gorm:"column:withdrawn_revenue;type:numeric(12,2);not null;default:0"`
	MonthlyRevenue   decimal.Decimal `gorm:"column:monthly_revenue;type:numeric(12,2);not null;default:0"`
	MonthlySales     int             `gorm:"column:monthly_sales;not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
