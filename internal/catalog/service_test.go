package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
)

type stubProvider struct {
	provider  enums.CatalogProvider
	items     map[uuid.UUID]*Item
	available bool
	linkCalls int
}

func (s *stubProvider) ListProducts(ctx context.Context, artistID uuid.UUID, filters ListFilters) ([]Item, error) {
	var out []Item
	for _, item := range s.items {
		if item.ArtistID == artistID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubProvider) GetProduct(ctx context.Context, id uuid.UUID) (*Item, error) {
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubProvider) CreateCheckoutLink(ctx context.Context, productID uuid.UUID) (*CheckoutLink, error) {
	s.linkCalls++
	return &CheckoutLink{
		CheckoutURL: "https://checkout.test/" + productID.String(),
		IsExternal:  s.provider == enums.CatalogProviderSquare,
	}, nil
}

func (s *stubProvider) IsAvailable(ctx context.Context, artistID uuid.UUID) (bool, error) {
	return s.available, nil
}

func stubItem(provider enums.CatalogProvider, artistID uuid.UUID) *Item {
	return &Item{
		ID:       uuid.New(),
		ArtistID: artistID,
		Title:    "item",
		Category: enums.ProductCategoryDigitalTrack,
		Status:   enums.ProductStatusPublished,
		Provider: provider,
	}
}

func TestListDispatchesToConnectedSquare(t *testing.T) {
	artistID := uuid.New()
	repo := newStubStorefrontRepo()
	repo.connections = append(repo.connections, connectedSquare(artistID))

	native := &stubProvider{provider: enums.CatalogProviderNative, items: map[uuid.UUID]*Item{}, available: true}
	sqp := &stubProvider{provider: enums.CatalogProviderSquare, items: map[uuid.UUID]*Item{}, available: true}
	mirrored := stubItem(enums.CatalogProviderSquare, artistID)
	sqp.items[mirrored.ID] = mirrored

	svc, err := NewService(native, sqp, repo)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	items, err := svc.List(context.Background(), artistID, ListFilters{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || items[0].Provider != enums.CatalogProviderSquare {
		t.Fatalf("expected mirrored catalog, got %+v", items)
	}
}

func TestListFallsBackToNativeWhenSquareUnavailable(t *testing.T) {
	artistID := uuid.New()
	repo := newStubStorefrontRepo()
	conn := connectedSquare(artistID)
	repo.connections = append(repo.connections, conn)

	native := &stubProvider{provider: enums.CatalogProviderNative, items: map[uuid.UUID]*Item{}, available: true}
	ownItem := stubItem(enums.CatalogProviderNative, artistID)
	native.items[ownItem.ID] = ownItem
	sqp := &stubProvider{provider: enums.CatalogProviderSquare, items: map[uuid.UUID]*Item{}, available: false}

	svc, _ := NewService(native, sqp, repo)
	provider, err := svc.ProviderFor(context.Background(), artistID)
	if err != nil {
		t.Fatalf("provider lookup failed: %v", err)
	}
	if provider != enums.CatalogProviderNative {
		t.Fatalf("expected native fallback, got %s", provider)
	}

	items, err := svc.List(context.Background(), artistID, ListFilters{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || items[0].Provider != enums.CatalogProviderNative {
		t.Fatalf("expected native catalog, got %+v", items)
	}
}

func TestCheckoutLinkFollowsProductProvider(t *testing.T) {
	artistID := uuid.New()
	repo := newStubStorefrontRepo()

	native := &stubProvider{provider: enums.CatalogProviderNative, items: map[uuid.UUID]*Item{}, available: true}
	sqp := &stubProvider{provider: enums.CatalogProviderSquare, items: map[uuid.UUID]*Item{}, available: true}
	mirrored := stubItem(enums.CatalogProviderSquare, artistID)
	sqp.items[mirrored.ID] = mirrored

	svc, _ := NewService(native, sqp, repo)
	link, err := svc.CheckoutLink(context.Background(), mirrored.ID)
	if err != nil {
		t.Fatalf("checkout link failed: %v", err)
	}
	if !link.IsExternal {
		t.Fatal("mirrored product should produce an external link")
	}
	if sqp.linkCalls != 1 || native.linkCalls != 0 {
		t.Fatalf("dispatch wrong: square=%d native=%d", sqp.linkCalls, native.linkCalls)
	}
}

func TestGetUnknownProduct(t *testing.T) {
	repo := newStubStorefrontRepo()
	native := &stubProvider{provider: enums.CatalogProviderNative, items: map[uuid.UUID]*Item{}}
	sqp := &stubProvider{provider: enums.CatalogProviderSquare, items: map[uuid.UUID]*Item{}}
	svc, _ := NewService(native, sqp, repo)

	_, err := svc.Get(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
