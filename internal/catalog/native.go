package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/internal/products"
	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
)

// nativeProvider serves the in-house catalog. Checkout links point at our own
// checkout flow, which later resolves into a purchase + processor session.
type nativeProvider struct {
	repo            products.Repository
	checkoutBaseURL string
}

// NewNativeProvider builds the in-house catalog provider.
func NewNativeProvider(repo products.Repository, checkoutBaseURL string) (Provider, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if checkoutBaseURL == "" {
		return nil, fmt.Errorf("checkout base url required")
	}
	return &nativeProvider{repo: repo, checkoutBaseURL: checkoutBaseURL}, nil
}

func (p *nativeProvider) ListProducts(ctx context.Context, artistID uuid.UUID, filters ListFilters) ([]Item, error) {
	list, err := p.repo.ListByArtist(ctx, artistID, products.ListFilters{
		Status:   filters.Status,
		Category: filters.Category,
		Search:   filters.Search,
		Page:     filters.Page,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list native catalog")
	}
	items := make([]Item, 0, len(list))
	for i := range list {
		items = append(items, nativeItem(&list[i]))
	}
	return items, nil
}

func (p *nativeProvider) GetProduct(ctx context.Context, id uuid.UUID) (*Item, error) {
	product, err := p.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load native product")
	}
	item := nativeItem(product)
	return &item, nil
}

func (p *nativeProvider) CreateCheckoutLink(ctx context.Context, productID uuid.UUID) (*CheckoutLink, error) {
	product, err := p.repo.FindByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load native product")
	}
	if product.Status != enums.ProductStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not purchasable")
	}
	return &CheckoutLink{
		CheckoutURL: fmt.Sprintf("%s/%s", p.checkoutBaseURL, product.ID),
		IsExternal:  false,
	}, nil
}

func (p *nativeProvider) IsAvailable(ctx context.Context, artistID uuid.UUID) (bool, error) {
	return true, nil
}

func nativeItem(product *models.Product) Item {
	return Item{
		ID:            product.ID,
		ArtistID:      product.ArtistID,
		Title:         product.Title,
		Category:      product.Category,
		Price:         product.Price,
		Status:        product.Status,
		FileKey:       product.FileKey,
		ExternalURL:   product.ExternalURL,
		Provider:      enums.CatalogProviderNative,
		ViewCount:     product.ViewCount,
		PurchaseCount: product.PurchaseCount,
	}
}
