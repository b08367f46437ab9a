package enums

import "fmt"

// PaymentRail identifies which processor rail carried a payment. The rail
// determines the processing-fee schedule applied to the sale.
type PaymentRail string

const (
	PaymentRailCard   PaymentRail = "card_rail"
	PaymentRailWallet PaymentRail = "wallet_rail"
)

var validPaymentRails = []PaymentRail{
	PaymentRailCard,
	PaymentRailWallet,
}

// String implements fmt.Stringer.
func (r PaymentRail) String() string {
	return string(r)
}

// IsValid reports whether the value is a known PaymentRail.
func (r PaymentRail) IsValid() bool {
	for _, candidate := range validPaymentRails {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParsePaymentRail converts raw input into a PaymentRail.
func ParsePaymentRail(value string) (PaymentRail, error) {
	for _, candidate := range validPaymentRails {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment rail %q", value)
}
