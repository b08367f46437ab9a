package engagement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
)

type stubEngagementRepo struct {
	rows []*models.FanEngagement
}

func (s *stubEngagementRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubEngagementRepo) Create(ctx context.Context, row *models.FanEngagement) error {
	row.ID = uuid.New()
	s.rows = append(s.rows, row)
	return nil
}

func (s *stubEngagementRepo) Save(ctx context.Context, row *models.FanEngagement) error {
	for i, r := range s.rows {
		if r.ID == row.ID {
			s.rows[i] = row
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubEngagementRepo) FindPairForUpdate(ctx context.Context, artistID, fanID uuid.UUID) (*models.FanEngagement, error) {
	for _, r := range s.rows {
		if r.ArtistID == artistID && r.FanID == fanID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubEngagementRepo) ListTopByArtist(ctx context.Context, artistID uuid.UUID, limit int) ([]models.FanEngagement, error) {
	var out []models.FanEngagement
	for _, r := range s.rows {
		if r.ArtistID == artistID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestRecordPurchaseUpserts(t *testing.T) {
	repo := &stubEngagementRepo{}
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	artistID, fanID := uuid.New(), uuid.New()
	first := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	if err := svc.RecordPurchase(context.Background(), nil, artistID, fanID, decimal.NewFromFloat(10.00), first); err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	if err := svc.RecordPurchase(context.Background(), nil, artistID, fanID, decimal.NewFromFloat(4.99), second); err != nil {
		t.Fatalf("second record failed: %v", err)
	}

	if len(repo.rows) != 1 {
		t.Fatalf("expected one row per pair, got %d", len(repo.rows))
	}
	row := repo.rows[0]
	if row.PurchaseCount != 2 {
		t.Fatalf("purchase count %d", row.PurchaseCount)
	}
	if !row.TotalSpent.Equal(decimal.NewFromFloat(14.99)) {
		t.Fatalf("total spent %s", row.TotalSpent)
	}
	if !row.LastEngagedAt.Equal(second) {
		t.Fatalf("last engaged %s", row.LastEngagedAt)
	}
}

func TestRecordPurchaseKeepsNewerTimestamp(t *testing.T) {
	repo := &stubEngagementRepo{}
	svc, _ := NewService(repo, stubTxRunner{})
	artistID, fanID := uuid.New(), uuid.New()
	newer := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	_ = svc.RecordPurchase(context.Background(), nil, artistID, fanID, decimal.NewFromInt(5), newer)
	// Out-of-order completion must not move the engagement timestamp back.
	_ = svc.RecordPurchase(context.Background(), nil, artistID, fanID, decimal.NewFromInt(5), older)

	if !repo.rows[0].LastEngagedAt.Equal(newer) {
		t.Fatalf("last engaged moved back to %s", repo.rows[0].LastEngagedAt)
	}
}
