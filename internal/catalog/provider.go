package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stagepass/stagepass-backend/pkg/enums"
	"github.com/stagepass/stagepass-backend/pkg/pagination"
)

// Item is the normalized catalog shape both providers return.
type Item struct {
	ID            uuid.UUID             `json:"id"`
	ArtistID      uuid.UUID             `json:"artist_id"`
	Title         string                `json:"title"`
	Category      enums.ProductCategory `json:"category"`
	Price         decimal.Decimal       `json:"price"`
	Status        enums.ProductStatus   `json:"status"`
	FileKey       *string               `json:"file_key,omitempty"`
	ExternalURL   *string               `json:"external_url,omitempty"`
	Provider      enums.CatalogProvider `json:"provider"`
	ViewCount     int                   `json:"view_count"`
	PurchaseCount int                   `json:"purchase_count"`
}

// ListFilters narrows a provider listing.
type ListFilters struct {
	Status   *enums.ProductStatus
	Category *enums.ProductCategory
	Search   string
	Page     pagination.Params
}

// CheckoutLink is where a buyer is sent to pay. External links are hosted by
// the storefront provider and complete outside our webhook flow.
type CheckoutLink struct {
	CheckoutURL string `json:"checkout_url"`
	IsExternal  bool   `json:"is_external"`
}

// Provider is one catalog backend. Dispatch between implementations is by the
// artist's stored storefront provider, not runtime type inspection.
type Provider interface {
	ListProducts(ctx context.Context, artistID uuid.UUID, filters ListFilters) ([]Item, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Item, error)
	CreateCheckoutLink(ctx context.Context, productID uuid.UUID) (*CheckoutLink, error)
	IsAvailable(ctx context.Context, artistID uuid.UUID) (bool, error)
}
