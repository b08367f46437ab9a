package purchases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/internal/engagement"
	"github.com/stagepass/stagepass-backend/internal/fees"
	"github.com/stagepass/stagepass-backend/internal/products"
	"github.com/stagepass/stagepass-backend/internal/revenue"
	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/pagination"
)

const checkoutCurrency = "usd"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the purchase state machine. Completion is the only place
// revenue and engagement side effects happen, and it happens exactly once per
// purchase regardless of how many times the processor redelivers the event.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, input CreatePurchaseInput) (*models.Purchase, error)
	Complete(ctx context.Context, purchaseID uuid.UUID) error
	CompleteByPaymentIntent(ctx context.Context, intentID string) error
	CompleteByCheckoutSession(ctx context.Context, sessionID, intentID string) error
	FailByPaymentIntent(ctx context.Context, intentID string) error
	Refund(ctx context.Context, artistID, purchaseID uuid.UUID) error
	History(ctx context.Context, buyerID uuid.UUID, page pagination.Params) ([]models.Purchase, error)
	RecordDownload(ctx context.Context, buyerID, purchaseID uuid.UUID) (*models.Purchase, error)
}

type service struct {
	repo            Repository
	products        products.Repository
	revenue         revenue.Service
	engagement      engagement.Service
	tx              txRunner
	checkout        StripeCheckoutClient
	checkoutBaseURL string
	now             func() time.Time
}

// CreatePurchaseInput captures a buyer's intent to purchase at a quoted price.
type CreatePurchaseInput struct {
	ProductID       uuid.UUID         `json:"product_id" validate:"required"`
	Amount          decimal.Decimal   `json:"amount"`
	PaymentMethod   enums.PaymentRail `json:"payment_method" validate:"required"`
	PaymentIntentID string            `json:"payment_intent_id"`
}

// NewService wires a purchase service with its collaborators.
func NewService(
	repo Repository,
	productsRepo products.Repository,
	revenueSvc revenue.Service,
	engagementSvc engagement.Service,
	tx txRunner,
	checkout StripeCheckoutClient,
	checkoutBaseURL string,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchases repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if revenueSvc == nil {
		return nil, fmt.Errorf("revenue service required")
	}
	if engagementSvc == nil {
		return nil, fmt.Errorf("engagement service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if checkout == nil {
		return nil, fmt.Errorf("stripe checkout client required")
	}
	if checkoutBaseURL == "" {
		return nil, fmt.Errorf("checkout base url required")
	}
	return &service{
		repo:            repo,
		products:        productsRepo,
		revenue:         revenueSvc,
		engagement:      engagementSvc,
		tx:              tx,
		checkout:        checkout,
		checkoutBaseURL: checkoutBaseURL,
		now:             time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, buyerID uuid.UUID, input CreatePurchaseInput) (*models.Purchase, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Status != enums.ProductStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not purchasable")
	}
	if !input.Amount.Round(2).Equal(product.Price.Round(2)) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "quoted amount does not match listed price")
	}

	// The agreed amount is frozen here; later product price edits never
	// change what this buyer pays.
	purchase := &models.Purchase{
		BuyerID:       buyerID,
		ProductID:     product.ID,
		ArtistID:      product.ArtistID,
		Amount:        input.Amount.Round(2),
		PaymentMethod: input.PaymentMethod,
		Status:        enums.PurchaseStatusPending,
	}
	if input.PaymentIntentID != "" {
		intentID := input.PaymentIntentID
		purchase.PaymentIntentID = &intentID
	} else {
		sess, err := s.createCheckoutSession(ctx, product, purchase.Amount)
		if err != nil {
			return nil, err
		}
		purchase.CheckoutSessionID = &sess.ID
	}

	if err := s.repo.Create(ctx, purchase); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
	}
	return purchase, nil
}

// Complete transitions a pending purchase to completed with all revenue side
// effects in one transaction. An already-completed purchase is a no-op:
// webhook delivery is at-least-once and this will be called more than once.
func (s *service) Complete(ctx context.Context, purchaseID uuid.UUID) error {
	if purchaseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		purchase, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, purchaseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
		}
		if purchase.Status == enums.PurchaseStatusCompleted {
			return nil
		}
		if purchase.Status != enums.PurchaseStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase cannot be completed in current state")
		}

		breakdown, err := fees.Calculate(purchase.Amount, purchase.PaymentMethod)
		if err != nil {
			return err
		}
		now := s.now()

		if err := s.products.WithTx(tx).IncrementPurchaseCount(ctx, purchase.ProductID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment product purchase counter")
		}
		if err := s.revenue.Credit(ctx, tx, purchase.ArtistID, breakdown.ArtistNet, now); err != nil {
			return err
		}
		if err := s.engagement.RecordPurchase(ctx, tx, purchase.ArtistID, purchase.BuyerID, purchase.Amount, now); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).MarkCompleted(ctx, purchase.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark purchase completed")
		}
		return nil
	})
}

func (s *service) CompleteByPaymentIntent(ctx context.Context, intentID string) error {
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	purchase, err := s.repo.FindByPaymentIntentID(ctx, intentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase by intent")
	}
	return s.Complete(ctx, purchase.ID)
}

// CompleteByCheckoutSession resolves a session-initiated purchase, backfills
// the payment intent id reported at completion, and completes it.
func (s *service) CompleteByCheckoutSession(ctx context.Context, sessionID, intentID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session id required")
	}
	purchase, err := s.repo.FindByCheckoutSessionID(ctx, sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase by session")
	}
	if intentID != "" && purchase.PaymentIntentID == nil {
		if err := s.repo.SetPaymentIntentID(ctx, purchase.ID, intentID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment intent id")
		}
	}
	return s.Complete(ctx, purchase.ID)
}

// FailByPaymentIntent marks a pending purchase failed. Any other current
// state is left untouched: out-of-order delivery means a failure event can
// arrive after the success that superseded it.
func (s *service) FailByPaymentIntent(ctx context.Context, intentID string) error {
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		purchase, err := repo.FindByPaymentIntentID(ctx, intentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase by intent")
		}
		locked, err := repo.FindByIDForUpdate(ctx, purchase.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock purchase")
		}
		if locked.Status != enums.PurchaseStatusPending {
			return nil
		}
		if err := repo.MarkFailed(ctx, locked.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark purchase failed")
		}
		return nil
	})
}

// Refund flips a completed purchase to refunded and pulls the net back out of
// pending revenue when it has not been paid out yet. The lifetime total is
// left alone.
func (s *service) Refund(ctx context.Context, artistID, purchaseID uuid.UUID) error {
	if artistID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "artist identity missing")
	}
	if purchaseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		purchase, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, purchaseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
		}
		if purchase.ArtistID != artistID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "purchase does not belong to artist")
		}
		if purchase.Status != enums.PurchaseStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only completed purchases can be refunded")
		}

		breakdown, err := fees.Calculate(purchase.Amount, purchase.PaymentMethod)
		if err != nil {
			return err
		}
		if err := s.revenue.DebitForRefund(ctx, tx, purchase.ArtistID, breakdown.ArtistNet); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).MarkRefunded(ctx, purchase.ID, s.now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark purchase refunded")
		}
		return nil
	})
}

func (s *service) History(ctx context.Context, buyerID uuid.UUID, page pagination.Params) ([]models.Purchase, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	purchases, err := s.repo.ListByBuyer(ctx, buyerID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase history")
	}
	return purchases, nil
}

func (s *service) RecordDownload(ctx context.Context, buyerID, purchaseID uuid.UUID) (*models.Purchase, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	purchase, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	if purchase.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "purchase does not belong to buyer")
	}
	if purchase.Status != enums.PurchaseStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase is not downloadable")
	}
	if err := s.repo.IncrementDownloadCount(ctx, purchase.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment download counter")
	}
	purchase.DownloadCount++
	return purchase, nil
}

func (s *service) createCheckoutSession(ctx context.Context, product *models.Product, amount decimal.Decimal) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(checkoutCurrency),
				UnitAmount: stripe.Int64(amount.Mul(decimal.NewFromInt(100)).IntPart()),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(product.Title),
				},
			},
		}},
		SuccessURL: stripe.String(fmt.Sprintf("%s/success", s.checkoutBaseURL)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/cancel", s.checkoutBaseURL)),
	}
	sess, err := s.checkout.CreateCheckoutSession(ctx, params)
	if err != nil {
		// Timeouts and processor failures are retryable for the caller;
		// the webhook remains the authoritative failure signal.
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return sess, nil
}
