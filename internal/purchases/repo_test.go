package purchases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	"github.com/stagepass/stagepass-backend/pkg/pagination"
)

func setupPurchasesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One database per test; cache=shared keeps the pool's connections on it.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  artist_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  category TEXT NOT NULL,
  price NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  file_key TEXT,
  external_url TEXT,
  view_count INTEGER NOT NULL DEFAULT 0,
  purchase_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	purchases := `
CREATE TABLE IF NOT EXISTS purchases (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  artist_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  payment_method TEXT NOT NULL,
  payment_intent_id TEXT UNIQUE,
  checkout_session_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  download_count INTEGER NOT NULL DEFAULT 0,
  completed_at DATETIME,
  refunded_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(purchases).Error)
	return db
}

func newPurchasedProduct(t *testing.T, db *gorm.DB, artistID uuid.UUID, title string) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:       uuid.New(),
		ArtistID: artistID,
		Title:    title,
		Category: enums.ProductCategoryDigitalTrack,
		Price:    decimal.NewFromFloat(12.50),
		Status:   enums.ProductStatusPublished,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func createPurchase(t *testing.T, db *gorm.DB, buyerID uuid.UUID, product *models.Product, intentID string, created time.Time) *models.Purchase {
	t.Helper()

	purchase := &models.Purchase{
		ID:            uuid.New(),
		BuyerID:       buyerID,
		ProductID:     product.ID,
		ArtistID:      product.ArtistID,
		Amount:        product.Price,
		PaymentMethod: enums.PaymentRailCard,
		Status:        enums.PurchaseStatusPending,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	if intentID != "" {
		purchase.PaymentIntentID = &intentID
	}
	require.NoError(t, db.Create(purchase).Error)
	return purchase
}

func TestRepositoryFindByPaymentIntentID(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	buyerID := uuid.New()
	product := newPurchasedProduct(t, db, uuid.New(), "Acoustic Sessions")
	created := createPurchase(t, db, buyerID, product, "pi_repo_1", time.Now().UTC())

	found, err := repo.FindByPaymentIntentID(context.Background(), "pi_repo_1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, buyerID, found.BuyerID)

	_, err = repo.FindByPaymentIntentID(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryStatusTransitions(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	product := newPurchasedProduct(t, db, uuid.New(), "Tour Poster")
	purchase := createPurchase(t, db, uuid.New(), product, "pi_repo_2", time.Now().UTC())

	completedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.MarkCompleted(context.Background(), purchase.ID, completedAt))

	found, err := repo.FindByID(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseStatusCompleted, found.Status)
	require.NotNil(t, found.CompletedAt)

	refundedAt := completedAt.Add(time.Hour)
	require.NoError(t, repo.MarkRefunded(context.Background(), purchase.ID, refundedAt))

	found, err = repo.FindByID(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseStatusRefunded, found.Status)
	require.NotNil(t, found.RefundedAt)
}

func TestRepositoryListByBuyer_pagination(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	buyerID := uuid.New()
	artistID := uuid.New()
	older := newPurchasedProduct(t, db, artistID, "Older Single")
	newer := newPurchasedProduct(t, db, artistID, "Newer Single")

	now := time.Now().UTC()
	createPurchase(t, db, buyerID, older, "pi_page_1", now.Add(-time.Hour))
	createPurchase(t, db, buyerID, newer, "pi_page_2", now)
	createPurchase(t, db, uuid.New(), older, "pi_other_buyer", now)

	list, err := repo.ListByBuyer(context.Background(), buyerID, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, pagination.LimitWithBuffer(1))
	assert.Equal(t, "Newer Single", list[0].Product.Title)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: list[0].CreatedAt, ID: list[0].ID})
	second, err := repo.ListByBuyer(context.Background(), buyerID, pagination.Params{Limit: 10, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Older Single", second[0].Product.Title)
}

func TestRepositoryIncrementDownloadCount(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	product := newPurchasedProduct(t, db, uuid.New(), "Live Bootleg")
	purchase := createPurchase(t, db, uuid.New(), product, "pi_repo_3", time.Now().UTC())

	require.NoError(t, repo.IncrementDownloadCount(context.Background(), purchase.ID))
	require.NoError(t, repo.IncrementDownloadCount(context.Background(), purchase.ID))

	found, err := repo.FindByID(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.DownloadCount)
}
