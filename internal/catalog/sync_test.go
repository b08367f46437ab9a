package catalog

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	"github.com/stagepass/stagepass-backend/pkg/logger"
	"github.com/stagepass/stagepass-backend/pkg/square"
)

type mirrorKey struct {
	connectionID uuid.UUID
	remoteID     string
}

type stubStorefrontRepo struct {
	connections []models.StorefrontConnection
	mirror      map[mirrorKey]*models.StorefrontProduct
	upsertErrs  map[string]error
	synced      map[uuid.UUID]time.Time
}

func newStubStorefrontRepo() *stubStorefrontRepo {
	return &stubStorefrontRepo{
		mirror:     map[mirrorKey]*models.StorefrontProduct{},
		upsertErrs: map[string]error{},
		synced:     map[uuid.UUID]time.Time{},
	}
}

func (s *stubStorefrontRepo) WithTx(tx *gorm.DB) StorefrontRepository { return s }

func (s *stubStorefrontRepo) FindConnectionByArtist(ctx context.Context, artistID uuid.UUID) (*models.StorefrontConnection, error) {
	for i := range s.connections {
		if s.connections[i].ArtistID == artistID {
			return &s.connections[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStorefrontRepo) ListConnected(ctx context.Context, provider enums.CatalogProvider) ([]models.StorefrontConnection, error) {
	var out []models.StorefrontConnection
	for _, c := range s.connections {
		if c.Provider == provider && c.Status == enums.ConnectionStatusConnected {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubStorefrontRepo) SaveConnection(ctx context.Context, conn *models.StorefrontConnection) error {
	return nil
}

func (s *stubStorefrontRepo) MarkSynced(ctx context.Context, connectionID uuid.UUID, at time.Time) error {
	s.synced[connectionID] = at
	return nil
}

func (s *stubStorefrontRepo) UpsertMirrorProduct(ctx context.Context, row *models.StorefrontProduct) error {
	if err, ok := s.upsertErrs[row.RemoteID]; ok {
		return err
	}
	key := mirrorKey{connectionID: row.ConnectionID, remoteID: row.RemoteID}
	if existing, ok := s.mirror[key]; ok {
		row.ID = existing.ID
	} else {
		row.ID = uuid.New()
	}
	s.mirror[key] = row
	return nil
}

func (s *stubStorefrontRepo) FindMirrorByID(ctx context.Context, id uuid.UUID) (*models.StorefrontProduct, error) {
	for _, row := range s.mirror {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStorefrontRepo) ListMirrorByArtist(ctx context.Context, artistID uuid.UUID, filters ListFilters) ([]models.StorefrontProduct, error) {
	var out []models.StorefrontProduct
	for _, row := range s.mirror {
		if row.ArtistID == artistID {
			out = append(out, *row)
		}
	}
	return out, nil
}

type stubRemoteCatalog struct {
	pages [][]square.CatalogItemSummary
	calls int
}

func (s *stubRemoteCatalog) ListCatalogItems(ctx context.Context, cursor string) ([]square.CatalogItemSummary, string, error) {
	if s.calls >= len(s.pages) {
		return nil, "", nil
	}
	page := s.pages[s.calls]
	s.calls++
	next := ""
	if s.calls < len(s.pages) {
		next = "more"
	}
	return page, next, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "catalog-test", Output: io.Discard})
}

func connectedSquare(artistID uuid.UUID) models.StorefrontConnection {
	return models.StorefrontConnection{
		ID:       uuid.New(),
		ArtistID: artistID,
		Provider: enums.CatalogProviderSquare,
		Status:   enums.ConnectionStatusConnected,
	}
}

func TestSyncUpsertsAcrossPages(t *testing.T) {
	repo := newStubStorefrontRepo()
	conn := connectedSquare(uuid.New())
	repo.connections = append(repo.connections, conn)

	remote := &stubRemoteCatalog{pages: [][]square.CatalogItemSummary{
		{{RemoteID: "ITEM_1", VariantID: "VAR_1", Name: "Tour Tee", AmountCents: 2500, Currency: "USD"}},
		{{RemoteID: "ITEM_2", Name: "Poster", AmountCents: 1200, Currency: "USD"}},
	}}

	syncer, err := NewSyncer(repo, remote, testLogger(), nil)
	if err != nil {
		t.Fatalf("syncer constructor failed: %v", err)
	}
	if err := syncer.Run(context.Background()); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if len(repo.mirror) != 2 {
		t.Fatalf("expected 2 mirror rows, got %d", len(repo.mirror))
	}
	tee := repo.mirror[mirrorKey{connectionID: conn.ID, remoteID: "ITEM_1"}]
	if tee == nil {
		t.Fatal("missing mirror row for ITEM_1")
	}
	if tee.Price.String() != "25" {
		t.Fatalf("price %s", tee.Price)
	}
	if tee.RemoteVariantID == nil || *tee.RemoteVariantID != "VAR_1" {
		t.Fatalf("variant id not stored")
	}
	if _, ok := repo.synced[conn.ID]; !ok {
		t.Fatal("sync watermark not stamped")
	}
}

func TestSyncIsIdempotentPerRemoteID(t *testing.T) {
	repo := newStubStorefrontRepo()
	conn := connectedSquare(uuid.New())
	repo.connections = append(repo.connections, conn)
	page := []square.CatalogItemSummary{{RemoteID: "ITEM_1", Name: "Tour Tee", AmountCents: 2500}}

	syncer, _ := NewSyncer(repo, &stubRemoteCatalog{pages: [][]square.CatalogItemSummary{page}}, testLogger(), nil)
	if err := syncer.Run(context.Background()); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	firstID := repo.mirror[mirrorKey{connectionID: conn.ID, remoteID: "ITEM_1"}].ID

	syncer, _ = NewSyncer(repo, &stubRemoteCatalog{pages: [][]square.CatalogItemSummary{page}}, testLogger(), nil)
	if err := syncer.Run(context.Background()); err != nil {
		t.Fatalf("second sync failed: %v", err)
	}

	if len(repo.mirror) != 1 {
		t.Fatalf("replay created extra rows: %d", len(repo.mirror))
	}
	if repo.mirror[mirrorKey{connectionID: conn.ID, remoteID: "ITEM_1"}].ID != firstID {
		t.Fatal("replay replaced the mirror row instead of updating it")
	}
}

func TestSyncToleratesPerItemFailure(t *testing.T) {
	repo := newStubStorefrontRepo()
	conn := connectedSquare(uuid.New())
	repo.connections = append(repo.connections, conn)
	repo.upsertErrs["ITEM_BAD"] = errors.New("constraint violation")

	remote := &stubRemoteCatalog{pages: [][]square.CatalogItemSummary{{
		{RemoteID: "ITEM_BAD", Name: "Broken", AmountCents: 100},
		{RemoteID: "ITEM_OK", Name: "Fine", AmountCents: 200},
		{Name: "missing remote id"},
	}}}

	syncer, _ := NewSyncer(repo, remote, testLogger(), nil)
	if err := syncer.Run(context.Background()); err != nil {
		t.Fatalf("sync should tolerate item failures, got %v", err)
	}

	if _, ok := repo.mirror[mirrorKey{connectionID: conn.ID, remoteID: "ITEM_OK"}]; !ok {
		t.Fatal("good item was not upserted after bad item failed")
	}
	if _, ok := repo.synced[conn.ID]; !ok {
		t.Fatal("watermark should still be stamped after partial failure")
	}
}
