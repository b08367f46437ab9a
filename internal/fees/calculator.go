package fees

import (
	"github.com/shopspring/decimal"

	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
)

// Platform takes a flat percentage of every gross sale.
var platformRate = decimal.NewFromFloat(0.10)

// railSchedule is the processor's fee structure per payment rail.
type railSchedule struct {
	percent decimal.Decimal
	fixed   decimal.Decimal
}

var railSchedules = map[enums.PaymentRail]railSchedule{
	enums.PaymentRailCard: {
		percent: decimal.NewFromFloat(0.029),
		fixed:   decimal.NewFromFloat(0.30),
	},
	enums.PaymentRailWallet: {
		percent: decimal.NewFromFloat(0.0349),
		fixed:   decimal.NewFromFloat(0.49),
	},
}

// Breakdown is the fee split of one gross sale amount.
//
// Each field is rounded to 2 decimal places independently, so
// PlatformFee + ProcessingFee + ArtistNet can drift from Gross by up to
// 0.02. Each figure matches what the processor reports for it.
type Breakdown struct {
	Gross         decimal.Decimal `json:"gross_amount"`
	PlatformFee   decimal.Decimal `json:"platform_fee"`
	ProcessingFee decimal.Decimal `json:"processing_fee"`
	ArtistNet     decimal.Decimal `json:"artist_net"`
}

// Calculate splits a gross sale into platform fee, processing fee, and artist
// net for the given payment rail. The only error case is a negative gross or
// an unknown rail.
func Calculate(gross decimal.Decimal, rail enums.PaymentRail) (Breakdown, error) {
	if gross.IsNegative() {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must not be negative")
	}
	schedule, ok := railSchedules[rail]
	if !ok {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment rail")
	}

	platformFee := gross.Mul(platformRate).Round(2)
	processingFee := gross.Mul(schedule.percent).Add(schedule.fixed).Round(2)
	artistNet := gross.Sub(platformFee).Sub(processingFee).Round(2)

	return Breakdown{
		Gross:         gross.Round(2),
		PlatformFee:   platformFee,
		ProcessingFee: processingFee,
		ArtistNet:     artistNet,
	}, nil
}
