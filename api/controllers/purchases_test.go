package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/stagepass/stagepass-backend/api/middleware"
	purchasesvc "github.com/stagepass/stagepass-backend/internal/purchases"
	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/pagination"
)

type fakePurchaseService struct {
	created   []purchasesvc.CreatePurchaseInput
	refunded  []uuid.UUID
	refundErr error
}

func (f *fakePurchaseService) Create(ctx context.Context, buyerID uuid.UUID, input purchasesvc.CreatePurchaseInput) (*models.Purchase, error) {
	f.created = append(f.created, input)
	return &models.Purchase{ID: uuid.New(), BuyerID: buyerID, ProductID: input.ProductID}, nil
}

func (f *fakePurchaseService) Complete(ctx context.Context, purchaseID uuid.UUID) error { return nil }

func (f *fakePurchaseService) CompleteByPaymentIntent(ctx context.Context, intentID string) error {
	return nil
}

func (f *fakePurchaseService) CompleteByCheckoutSession(ctx context.Context, sessionID, intentID string) error {
	return nil
}

func (f *fakePurchaseService) FailByPaymentIntent(ctx context.Context, intentID string) error {
	return nil
}

func (f *fakePurchaseService) Refund(ctx context.Context, artistID, purchaseID uuid.UUID) error {
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunded = append(f.refunded, purchaseID)
	return nil
}

func (f *fakePurchaseService) History(ctx context.Context, buyerID uuid.UUID, page pagination.Params) ([]models.Purchase, error) {
	return []models.Purchase{}, nil
}

func (f *fakePurchaseService) RecordDownload(ctx context.Context, buyerID, purchaseID uuid.UUID) (*models.Purchase, error) {
	return &models.Purchase{ID: purchaseID, BuyerID: buyerID}, nil
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := middleware.WithUserID(req.Context(), userID.String())
	return req.WithContext(ctx)
}

func TestPurchaseCreate(t *testing.T) {
	service := &fakePurchaseService{}
	handler := PurchaseCreate(service, nil)
	buyerID := uuid.New()
	productID := uuid.New()

	body := `{"product_id":"` + productID.String() + `","amount":"14.99","payment_method":"card_rail"}`
	req := authedRequest(http.MethodPost, "/api/v1/purchases", body, buyerID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(service.created) != 1 {
		t.Fatalf("expected one create call")
	}
	if service.created[0].ProductID != productID {
		t.Fatalf("unexpected product id %s", service.created[0].ProductID)
	}
}

func TestPurchaseCreateRequiresAuth(t *testing.T) {
	service := &fakePurchaseService{}
	handler := PurchaseCreate(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user context, got %d", rec.Code)
	}
	if len(service.created) != 0 {
		t.Fatalf("service must not be called without auth")
	}
}

func TestPurchaseCreateRejectsUnknownFields(t *testing.T) {
	service := &fakePurchaseService{}
	handler := PurchaseCreate(service, nil)

	body := `{"product_id":"` + uuid.NewString() + `","payment_method":"card_rail","surprise":true}`
	req := authedRequest(http.MethodPost, "/api/v1/purchases", body, uuid.New())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}
