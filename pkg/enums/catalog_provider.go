package enums

import "fmt"

// CatalogProvider selects which commerce backend serves an artist's products.
type CatalogProvider string

const (
	CatalogProviderNative CatalogProvider = "native"
	CatalogProviderSquare CatalogProvider = "square"
)

var validCatalogProviders = []CatalogProvider{
	CatalogProviderNative,
	CatalogProviderSquare,
}

// String implements fmt.Stringer.
func (p CatalogProvider) String() string {
	return string(p)
}

// IsValid reports whether the value is a known CatalogProvider.
func (p CatalogProvider) IsValid() bool {
	for _, candidate := range validCatalogProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseCatalogProvider converts raw input into a CatalogProvider.
func ParseCatalogProvider(value string) (CatalogProvider, error) {
	for _, candidate := range validCatalogProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog provider %q", value)
}
