package drops

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the drop state machine and the gated read path.
type Service interface {
	Create(ctx context.Context, artistID uuid.UUID, input CreateDropInput) (*models.MerchDrop, error)
	Update(ctx context.Context, artistID, dropID uuid.UUID, input UpdateDropInput) (*models.MerchDrop, error)
	Publish(ctx context.Context, artistID, dropID uuid.UUID) (*models.MerchDrop, error)
	Cancel(ctx context.Context, artistID, dropID uuid.UUID) (*models.MerchDrop, error)
	Delete(ctx context.Context, artistID, dropID uuid.UUID) error
	ListByArtist(ctx context.Context, artistID uuid.UUID, page pagination.Params) ([]models.MerchDrop, error)
	View(ctx context.Context, dropID, viewerID uuid.UUID) (*DropView, error)
	CanAccess(ctx context.Context, drop *models.MerchDrop, viewerID uuid.UUID) (AccessDecision, error)
}

type service struct {
	repo Repository
	gate gate
	tx   txRunner
	now  func() time.Time
}

// DropItemInput is one product in a drop, with optional per-drop overrides.
type DropItemInput struct {
	ProductID     uuid.UUID        `json:"product_id" validate:"required"`
	PriceOverride *decimal.Decimal `json:"price_override"`
	TitleOverride *string          `json:"title_override"`
	MaxPerUser    int              `json:"max_per_user" validate:"gte=0"`
}

// CreateDropInput captures a new draft drop.
type CreateDropInput struct {
	Title           string           `json:"title" validate:"required,max=200"`
	Description     *string          `json:"description"`
	StartsAt        *time.Time       `json:"starts_at"`
	EndsAt          *time.Time       `json:"ends_at"`
	Gating          enums.DropGating `json:"gating" validate:"required"`
	RoomID          *uuid.UUID       `json:"room_id"`
	EarlyAccessDays int              `json:"early_access_days" validate:"gte=0"`
	Items           []DropItemInput  `json:"items"`
}

// UpdateDropInput carries partial updates; nil fields are left untouched.
// A non-nil Items slice replaces the item set wholesale.
type UpdateDropInput struct {
	Title           *string           `json:"title" validate:"omitempty,max=200"`
	Description     *string           `json:"description"`
	StartsAt        *time.Time        `json:"starts_at"`
	EndsAt          *time.Time        `json:"ends_at"`
	Gating          *enums.DropGating `json:"gating"`
	RoomID          *uuid.UUID        `json:"room_id"`
	EarlyAccessDays *int              `json:"early_access_days"`
	Items           []DropItemInput   `json:"items"`
}

// DropView is the gated read model. Denied live views keep the metadata but
// carry no items.
type DropView struct {
	Drop            *models.MerchDrop `json:"drop"`
	EffectiveStatus enums.DropStatus  `json:"effective_status"`
	Access          AccessDecision    `json:"access"`
	Items           []models.MerchDropItem `json:"items"`
}

// NewService wires a drop service with the external follow and room lookups.
func NewService(repo Repository, tx txRunner, follows FollowChecker, rooms RoomMembershipChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("drops repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if follows == nil {
		return nil, fmt.Errorf("follow checker required")
	}
	if rooms == nil {
		return nil, fmt.Errorf("room membership checker required")
	}
	return &service{
		repo: repo,
		gate: gate{follows: follows, rooms: rooms},
		tx:   tx,
		now:  time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, artistID uuid.UUID, input CreateDropInput) (*models.MerchDrop, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "artist identity missing")
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if err := validateGating(input.Gating, input.StartsAt, input.EarlyAccessDays); err != nil {
		return nil, err
	}
	items, err := buildItems(input.Items)
	if err != nil {
		return nil, err
	}

	drop := &models.MerchDrop{
		ArtistID:        artistID,
		Title:           input.Title,
		Description:     input.Description,
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		Gating:          input.Gating,
		RoomID:          input.RoomID,
		EarlyAccessDays: input.EarlyAccessDays,
		Status:          enums.DropStatusDraft,
		Items:           items,
	}
	if err := s.repo.Create(ctx, drop); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create drop")
	}
	return drop, nil
}

func (s *service) Update(ctx context.Context, artistID, dropID uuid.UUID, input UpdateDropInput) (*models.MerchDrop, error) {
	drop, err := s.ownedDrop(ctx, artistID, dropID)
	if err != nil {
		return nil, err
	}
	if drop.Status != enums.DropStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft drops can be edited")
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title must not be empty")
		}
		drop.Title = *input.Title
	}
	if input.Description != nil {
		drop.Description = input.Description
	}
	if input.StartsAt != nil {
		drop.StartsAt = input.StartsAt
	}
	if input.EndsAt != nil {
		drop.EndsAt = input.EndsAt
	}
	if input.Gating != nil {
		drop.Gating = *input.Gating
	}
	if input.RoomID != nil {
		drop.RoomID = input.RoomID
	}
	if input.EarlyAccessDays != nil {
		drop.EarlyAccessDays = *input.EarlyAccessDays
	}
	if err := validateGating(drop.Gating, drop.StartsAt, drop.EarlyAccessDays); err != nil {
		return nil, err
	}

	var items []models.MerchDropItem
	if input.Items != nil {
		items, err = buildItems(input.Items)
		if err != nil {
			return nil, err
		}
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Save(ctx, drop); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update drop")
		}
		if input.Items != nil {
			if err := repo.ReplaceItems(ctx, drop.ID, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace drop items")
			}
			drop.Items = items
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return drop, nil
}

func (s *service) Publish(ctx context.Context, artistID, dropID uuid.UUID) (*models.MerchDrop, error) {
	drop, err := s.ownedDrop(ctx, artistID, dropID)
	if err != nil {
		return nil, err
	}
	if drop.Status != enums.DropStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft drops can be published")
	}
	if len(drop.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot publish a drop with no items")
	}
	now := s.now()
	if drop.EndsAt != nil && drop.EndsAt.Before(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot publish a drop that has already ended")
	}

	if drop.StartsAt != nil && drop.StartsAt.After(now) {
		drop.Status = enums.DropStatusScheduled
	} else {
		drop.Status = enums.DropStatusLive
	}
	drop.PublishedAt = &now

	if err := s.repo.Save(ctx, drop); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish drop")
	}
	return drop, nil
}

func (s *service) Cancel(ctx context.Context, artistID, dropID uuid.UUID) (*models.MerchDrop, error) {
	drop, err := s.ownedDrop(ctx, artistID, dropID)
	if err != nil {
		return nil, err
	}
	if drop.Status == enums.DropStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "drop is already cancelled")
	}
	now := s.now()
	drop.Status = enums.DropStatusCancelled
	drop.CancelledAt = &now

	if err := s.repo.Save(ctx, drop); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel drop")
	}
	return drop, nil
}

func (s *service) Delete(ctx context.Context, artistID, dropID uuid.UUID) error {
	drop, err := s.ownedDrop(ctx, artistID, dropID)
	if err != nil {
		return err
	}
	if drop.Status != enums.DropStatusDraft {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft drops can be deleted")
	}
	if err := s.repo.Delete(ctx, dropID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete drop")
	}
	return nil
}

func (s *service) ListByArtist(ctx context.Context, artistID uuid.UUID, page pagination.Params) ([]models.MerchDrop, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "artist identity missing")
	}
	drops, err := s.repo.ListByArtist(ctx, artistID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list drops")
	}
	return drops, nil
}

// View is the gated public read. Owners see every state; everyone else sees
// only live drops, and a denied gate hides the items but not the metadata.
func (s *service) View(ctx context.Context, dropID, viewerID uuid.UUID) (*DropView, error) {
	if dropID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "drop id required")
	}
	drop, err := s.repo.FindByID(ctx, dropID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "drop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load drop")
	}

	now := s.now()
	effective := EffectiveStatus(drop, now)

	if viewerID == drop.ArtistID {
		return &DropView{
			Drop:            drop,
			EffectiveStatus: effective,
			Access:          accessGranted,
			Items:           drop.Items,
		}, nil
	}
	if effective != enums.DropStatusLive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "drop not found")
	}

	decision, err := s.gate.CanAccess(ctx, drop, viewerID, now)
	if err != nil {
		return nil, err
	}
	view := &DropView{
		Drop:            drop,
		EffectiveStatus: effective,
		Access:          decision,
	}
	if !decision.Allowed {
		return view, nil
	}

	view.Items = drop.Items
	if err := s.repo.IncrementViewCount(ctx, drop.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record drop view")
	}
	return view, nil
}

func (s *service) CanAccess(ctx context.Context, drop *models.MerchDrop, viewerID uuid.UUID) (AccessDecision, error) {
	return s.gate.CanAccess(ctx, drop, viewerID, s.now())
}

func (s *service) ownedDrop(ctx context.Context, artistID, dropID uuid.UUID) (*models.MerchDrop, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "artist identity missing")
	}
	if dropID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "drop id required")
	}
	drop, err := s.repo.FindByID(ctx, dropID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "drop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load drop")
	}
	if drop.ArtistID != artistID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "drop does not belong to artist")
	}
	return drop, nil
}

func validateGating(gating enums.DropGating, startsAt *time.Time, earlyAccessDays int) error {
	if !gating.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid gating type")
	}
	if gating == enums.DropGatingFollowersEarlyAccess {
		if startsAt == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "early access gating requires a start instant")
		}
		if earlyAccessDays < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "early access gating requires a lead time")
		}
	}
	return nil
}

func buildItems(inputs []DropItemInput) ([]models.MerchDropItem, error) {
	items := make([]models.MerchDropItem, 0, len(inputs))
	for _, in := range inputs {
		if in.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if in.PriceOverride != nil && in.PriceOverride.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price override must not be negative")
		}
		if in.MaxPerUser < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item per-user cap must not be negative")
		}
		items = append(items, models.MerchDropItem{
			ProductID:     in.ProductID,
			PriceOverride: in.PriceOverride,
			TitleOverride: in.TitleOverride,
			MaxPerUser:    in.MaxPerUser,
		})
	}
	return items, nil
}
