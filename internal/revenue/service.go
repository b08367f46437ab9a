package revenue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the artist revenue buckets. Mutations are only ever called
// from purchase completion, refunds, and payout reconciliation, always inside
// the caller's transaction when one is passed.
//
// Buckets are keyed by (artist, month, year). The monthly counters belong to
// their own bucket; the lifetime figures (total, pending, withdrawn) live on
// the newest bucket and are carried forward when a new month's bucket is
// created, so every read-modify-write touches exactly one locked row.
type Service interface {
	Credit(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, net decimal.Decimal, at time.Time) error
	DebitForPayout(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, amount decimal.Decimal) error
	ReversePayout(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, amount decimal.Decimal) error
	DebitForRefund(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, net decimal.Decimal) error
	Snapshot(ctx context.Context, artistID uuid.UUID) (*models.ArtistRevenue, error)
	History(ctx context.Context, artistID uuid.UUID) ([]models.ArtistRevenue, error)
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService wires a revenue service with the provided repository and
// transaction runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("revenue repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, net decimal.Decimal, at time.Time) error {
	if artistID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "artist id required")
	}
	return s.inTx(ctx, tx, func(tx *gorm.DB) error {
		bucket, err := s.currentBucket(ctx, tx, artistID, at)
		if err != nil {
			return err
		}
		bucket.TotalRevenue = bucket.TotalRevenue.Add(net)
		bucket.PendingRevenue = bucket.PendingRevenue.Add(net)
		bucket.MonthlyRevenue = bucket.MonthlyRevenue.Add(net)
		bucket.MonthlySales++
		if err := s.repo.WithTx(tx).Save(ctx, bucket); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit revenue bucket")
		}
		return nil
	})
}

func (s *service) DebitForPayout(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, amount decimal.Decimal) error {
	if artistID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "artist id required")
	}
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
	}
	return s.inTx(ctx, tx, func(tx *gorm.DB) error {
		bucket, err := s.currentBucket(ctx, tx, artistID, s.now())
		if err != nil {
			return err
		}
		if bucket.PendingRevenue.LessThan(amount) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient pending revenue")
		}
		bucket.PendingRevenue = bucket.PendingRevenue.Sub(amount)
		bucket.WithdrawnRevenue = bucket.WithdrawnRevenue.Add(amount)
		if err := s.repo.WithTx(tx).Save(ctx, bucket); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit revenue bucket")
		}
		return nil
	})
}

func (s *service) ReversePayout(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, amount decimal.Decimal) error {
	if artistID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "artist id required")
	}
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "reversal amount must be positive")
	}
	return s.inTx(ctx, tx, func(tx *gorm.DB) error {
		bucket, err := s.currentBucket(ctx, tx, artistID, s.now())
		if err != nil {
			return err
		}
		bucket.PendingRevenue = bucket.PendingRevenue.Add(amount)
		bucket.WithdrawnRevenue = bucket.WithdrawnRevenue.Sub(amount)
		if bucket.WithdrawnRevenue.IsNegative() {
			bucket.WithdrawnRevenue = decimal.Zero
		}
		if err := s.repo.WithTx(tx).Save(ctx, bucket); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse payout debit")
		}
		return nil
	})
}

// DebitForRefund removes a refunded purchase's net from pending revenue when
// it has not been paid out yet, clamping at zero. TotalRevenue stays put; it
// is a lifetime high-water mark, not a live balance.
func (s *service) DebitForRefund(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, net decimal.Decimal) error {
	if artistID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "artist id required")
	}
	return s.inTx(ctx, tx, func(tx *gorm.DB) error {
		bucket, err := s.currentBucket(ctx, tx, artistID, s.now())
		if err != nil {
			return err
		}
		bucket.PendingRevenue = bucket.PendingRevenue.Sub(net)
		if bucket.PendingRevenue.IsNegative() {
			bucket.PendingRevenue = decimal.Zero
		}
		if err := s.repo.WithTx(tx).Save(ctx, bucket); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit refunded revenue")
		}
		return nil
	})
}

func (s *service) Snapshot(ctx context.Context, artistID uuid.UUID) (*models.ArtistRevenue, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artist id required")
	}
	now := s.now()
	latest, err := s.repo.FindLatest(ctx, artistID)
	if err == nil && latest.Year == now.Year() && latest.Month == int(now.Month()) {
		return latest, nil
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load revenue snapshot")
	}

	// Lazily open the current month's bucket on first query.
	var bucket *models.ArtistRevenue
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		bucket, err = s.currentBucket(ctx, tx, artistID, now)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return bucket, nil
}

func (s *service) History(ctx context.Context, artistID uuid.UUID) ([]models.ArtistRevenue, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artist id required")
	}
	buckets, err := s.repo.ListByArtist(ctx, artistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list revenue history")
	}
	return buckets, nil
}

func (s *service) inTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.tx.WithTx(ctx, fn)
}

// currentBucket returns the locked bucket for the month containing at,
// creating it if missing and rolling the lifetime figures forward from the
// previous newest bucket.
func (s *service) currentBucket(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, at time.Time) (*models.ArtistRevenue, error) {
	repo := s.repo.WithTx(tx)
	month, year := int(at.Month()), at.Year()

	latest, err := repo.FindLatestForUpdate(ctx, artistID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load revenue bucket")
	}
	if err == nil && latest.Year == year && latest.Month == month {
		return latest, nil
	}

	bucket := &models.ArtistRevenue{
		ArtistID: artistID,
		Month:    month,
		Year:     year,
	}
	if latest != nil {
		bucket.TotalRevenue = latest.TotalRevenue
		bucket.PendingRevenue = latest.PendingRevenue
		bucket.WithdrawnRevenue = latest.WithdrawnRevenue
	}
	if err := repo.Create(ctx, bucket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create revenue bucket")
	}
	return bucket, nil
}
