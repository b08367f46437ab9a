package fees

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculate(t *testing.T) {
	cases := []struct {
		name       string
		gross      string
		rail       enums.PaymentRail
		platform   string
		processing string
		net        string
	}{
		{"card ten dollars", "10.00", enums.PaymentRailCard, "1.00", "0.59", "8.41"},
		{"wallet ten dollars", "10.00", enums.PaymentRailWallet, "1.00", "0.84", "8.16"},
		{"card free item", "0.00", enums.PaymentRailCard, "0.00", "0.30", "-0.30"},
		{"card one cent", "0.01", enums.PaymentRailCard, "0.00", "0.30", "-0.29"},
		{"card large sale", "1999.99", enums.PaymentRailCard, "200.00", "58.30", "1741.69"},
		{"wallet odd amount", "12.34", enums.PaymentRailWallet, "1.23", "0.92", "10.19"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Calculate(dec(tc.gross), tc.rail)
			if err != nil {
				t.Fatalf("Calculate returned error: %v", err)
			}
			if !got.PlatformFee.Equal(dec(tc.platform)) {
				t.Errorf("platform fee = %s, want %s", got.PlatformFee, tc.platform)
			}
			if !got.ProcessingFee.Equal(dec(tc.processing)) {
				t.Errorf("processing fee = %s, want %s", got.ProcessingFee, tc.processing)
			}
			if !got.ArtistNet.Equal(dec(tc.net)) {
				t.Errorf("artist net = %s, want %s", got.ArtistNet, tc.net)
			}
		})
	}
}

func TestCalculateSumTolerance(t *testing.T) {
	tolerance := dec("0.02")
	amounts := []string{"0.50", "1.00", "4.99", "9.99", "10.00", "25.55", "99.99", "123.45", "1000.00"}

	for _, rail := range []enums.PaymentRail{enums.PaymentRailCard, enums.PaymentRailWallet} {
		for _, amount := range amounts {
			gross := dec(amount)
			got, err := Calculate(gross, rail)
			if err != nil {
				t.Fatalf("Calculate(%s, %s) returned error: %v", amount, rail, err)
			}
			sum := got.PlatformFee.Add(got.ProcessingFee).Add(got.ArtistNet)
			drift := sum.Sub(gross).Abs()
			if drift.GreaterThan(tolerance) {
				t.Errorf("Calculate(%s, %s) parts sum to %s, drift %s exceeds tolerance", amount, rail, sum, drift)
			}
		}
	}
}

func TestCalculateRejectsNegativeGross(t *testing.T) {
	_, err := Calculate(dec("-1.00"), enums.PaymentRailCard)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCalculateRejectsUnknownRail(t *testing.T) {
	_, err := Calculate(dec("10.00"), enums.PaymentRail("carrier_pigeon"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
