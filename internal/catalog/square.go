package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/square"
)

const defaultCurrency = "USD"

// paymentLinker is the slice of the Square wrapper the provider needs.
type paymentLinker interface {
	CreatePaymentLink(ctx context.Context, params square.PaymentLinkParams) (*square.PaymentLinkResult, error)
	NewIdempotencyKey(prefix string) string
}

// squareProvider serves the mirrored remote catalog. The read side never
// calls Square; only checkout-link creation does.
type squareProvider struct {
	store  StorefrontRepository
	square paymentLinker
}

// NewSquareProvider builds the external storefront catalog provider.
func NewSquareProvider(store StorefrontRepository, sq paymentLinker) (Provider, error) {
	if store == nil {
		return nil, fmt.Errorf("storefront repository required")
	}
	if sq == nil {
		return nil, fmt.Errorf("square client required")
	}
	return &squareProvider{store: store, square: sq}, nil
}

func (p *squareProvider) ListProducts(ctx context.Context, artistID uuid.UUID, filters ListFilters) ([]Item, error) {
	rows, err := p.store.ListMirrorByArtist(ctx, artistID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list mirrored catalog")
	}
	items := make([]Item, 0, len(rows))
	for i := range rows {
		items = append(items, mirrorItem(&rows[i]))
	}
	return items, nil
}

func (p *squareProvider) GetProduct(ctx context.Context, id uuid.UUID) (*Item, error) {
	row, err := p.store.FindMirrorByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load mirrored product")
	}
	item := mirrorItem(row)
	return &item, nil
}

func (p *squareProvider) CreateCheckoutLink(ctx context.Context, productID uuid.UUID) (*CheckoutLink, error) {
	row, err := p.store.FindMirrorByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load mirrored product")
	}
	if row.Status != enums.ProductStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not purchasable")
	}

	link, err := p.square.CreatePaymentLink(ctx, square.PaymentLinkParams{
		Name:           row.Title,
		AmountCents:    row.Price.Mul(decimalHundred).IntPart(),
		Currency:       defaultCurrency,
		IdempotencyKey: p.square.NewIdempotencyKey("payment_link." + row.ID.String()),
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutLink{CheckoutURL: link.URL, IsExternal: true}, nil
}

func (p *squareProvider) IsAvailable(ctx context.Context, artistID uuid.UUID) (bool, error) {
	conn, err := p.store.FindConnectionByArtist(ctx, artistID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load storefront connection")
	}
	return conn.Provider == enums.CatalogProviderSquare && conn.Status == enums.ConnectionStatusConnected, nil
}

func mirrorItem(row *models.StorefrontProduct) Item {
	return Item{
		ID:          row.ID,
		ArtistID:    row.ArtistID,
		Title:       row.Title,
		Category:    row.Category,
		Price:       row.Price,
		Status:      row.Status,
		ExternalURL: row.URL,
		Provider:    enums.CatalogProviderSquare,
	}
}
