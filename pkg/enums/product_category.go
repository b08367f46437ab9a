package enums

import "fmt"

// ProductCategory classifies what kind of item an artist is selling.
type ProductCategory string

const (
	ProductCategoryDigitalTrack ProductCategory = "digital_track"
	ProductCategoryDigitalAlbum ProductCategory = "digital_album"
	ProductCategoryMerchLink    ProductCategory = "merch_link"
	ProductCategoryTicketLink   ProductCategory = "ticket_link"
	ProductCategoryPresetPack   ProductCategory = "preset_pack"
)

var validProductCategories = []ProductCategory{
	ProductCategoryDigitalTrack,
	ProductCategoryDigitalAlbum,
	ProductCategoryMerchLink,
	ProductCategoryTicketLink,
	ProductCategoryPresetPack,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
