package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
	"github.com/stagepass/stagepass-backend/pkg/metrics"
	"github.com/stagepass/stagepass-backend/pkg/square"
)

const syncJobName = "storefront_catalog_sync"

// remoteCatalog is the slice of the Square wrapper the sync job needs.
type remoteCatalog interface {
	ListCatalogItems(ctx context.Context, cursor string) ([]square.CatalogItemSummary, string, error)
}

// Syncer refreshes the storefront mirror from the remote Square catalog.
// A batch tolerates per-item failures: bad objects are reported and skipped,
// the rest of the page still lands.
type Syncer struct {
	store   StorefrontRepository
	remote  remoteCatalog
	logg    *logger.Logger
	metrics *metrics.SyncJobMetrics
	now     func() time.Time
}

// NewSyncer wires a catalog syncer.
func NewSyncer(store StorefrontRepository, remote remoteCatalog, logg *logger.Logger, m *metrics.SyncJobMetrics) (*Syncer, error) {
	if store == nil {
		return nil, fmt.Errorf("storefront repository required")
	}
	if remote == nil {
		return nil, fmt.Errorf("remote catalog client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Syncer{store: store, remote: remote, logg: logg, metrics: m, now: time.Now}, nil
}

// Name identifies the job in cron registration and metrics.
func (s *Syncer) Name() string { return syncJobName }

// Run syncs every connected storefront. A connection-level failure is logged
// and counted but does not abort the remaining connections.
func (s *Syncer) Run(ctx context.Context) error {
	conns, err := s.store.ListConnected(ctx, enums.CatalogProviderSquare)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list storefront connections")
	}

	var failed int
	for i := range conns {
		conn := &conns[i]
		ctx := s.logg.WithFields(ctx, map[string]any{
			"connection_id": conn.ID.String(),
			"artist_id":     conn.ArtistID.String(),
		})
		if err := s.syncConnection(ctx, conn); err != nil {
			failed++
			s.logg.Error(ctx, "storefront sync failed", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("storefront sync: %d of %d connections failed", failed, len(conns))
	}
	return nil
}

func (s *Syncer) syncConnection(ctx context.Context, conn *models.StorefrontConnection) error {
	var (
		cursor   string
		upserted int
		skipped  int
	)
	for {
		summaries, next, err := s.remote.ListCatalogItems(ctx, cursor)
		if err != nil {
			return err
		}
		for _, summary := range summaries {
			if err := s.upsertItem(ctx, conn, summary); err != nil {
				skipped++
				s.logg.Error(s.logg.WithField(ctx, "remote_id", summary.RemoteID), "skipping catalog item", err)
				continue
			}
			upserted++
		}
		if next == "" {
			break
		}
		cursor = next
	}

	if err := s.store.MarkSynced(ctx, conn.ID, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp connection sync watermark")
	}

	if s.metrics != nil {
		s.metrics.AddItems(syncJobName, "upserted", upserted)
		s.metrics.AddItems(syncJobName, "skipped", skipped)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"upserted": upserted,
		"skipped":  skipped,
	}), "storefront connection synced")
	return nil
}

func (s *Syncer) upsertItem(ctx context.Context, conn *models.StorefrontConnection, summary square.CatalogItemSummary) error {
	if summary.RemoteID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "catalog object missing remote id")
	}
	row := &models.StorefrontProduct{
		ConnectionID: conn.ID,
		ArtistID:     conn.ArtistID,
		RemoteID:     summary.RemoteID,
		Title:        summary.Name,
		Category:     enums.ProductCategoryMerchLink,
		Price:        decimal.NewFromInt(summary.AmountCents).Div(decimalHundred),
		Status:       enums.ProductStatusPublished,
		LastSyncedAt: s.now(),
	}
	if summary.VariantID != "" {
		variantID := summary.VariantID
		row.RemoteVariantID = &variantID
	}
	if summary.URL != "" {
		url := summary.URL
		row.URL = &url
	}
	if err := s.store.UpsertMirrorProduct(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert mirror product")
	}
	return nil
}
