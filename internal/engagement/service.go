package engagement

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

const defaultTopFansLimit = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service tracks per (artist, fan) spend. RecordPurchase is only called from
// purchase completion and always tallies the gross amount, which is what the
// ranking surfaces care about.
type Service interface {
	RecordPurchase(ctx context.Context, tx *gorm.DB, artistID, fanID uuid.UUID, gross decimal.Decimal, at time.Time) error
	TopFans(ctx context.Context, artistID uuid.UUID, limit int) ([]models.FanEngagement, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires an engagement service with the provided repository.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("engagement repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) RecordPurchase(ctx context.Context, tx *gorm.DB, artistID, fanID uuid.UUID, gross decimal.Decimal, at time.Time) error {
	if artistID == uuid.Nil || fanID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "artist and fan ids required")
	}
	run := func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindPairForUpdate(ctx, artistID, fanID)
		if err == gorm.ErrRecordNotFound {
			row = &models.FanEngagement{
				ArtistID:      artistID,
				FanID:         fanID,
				PurchaseCount: 1,
				TotalSpent:    gross,
				LastEngagedAt: at,
			}
			if err := repo.Create(ctx, row); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create fan engagement")
			}
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fan engagement")
		}
		row.PurchaseCount++
		row.TotalSpent = row.TotalSpent.Add(gross)
		if at.After(row.LastEngagedAt) {
			row.LastEngagedAt = at
		}
		if err := repo.Save(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update fan engagement")
		}
		return nil
	}
	if tx != nil {
		return run(tx)
	}
	return s.tx.WithTx(ctx, run)
}

func (s *service) TopFans(ctx context.Context, artistID uuid.UUID, limit int) ([]models.FanEngagement, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artist id required")
	}
	if limit <= 0 {
		limit = defaultTopFansLimit
	}
	rows, err := s.repo.ListTopByArtist(ctx, artistID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list top fans")
	}
	return rows, nil
}
