package payouts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/pagination"
)

type stubPayoutsRepo struct {
	payouts  map[string]*models.ArtistPayout
	accounts map[uuid.UUID]*models.PaymentAccount
}

func newStubPayoutsRepo() *stubPayoutsRepo {
	return &stubPayoutsRepo{
		payouts:  map[string]*models.ArtistPayout{},
		accounts: map[uuid.UUID]*models.PaymentAccount{},
	}
}

func (s *stubPayoutsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPayoutsRepo) Create(ctx context.Context, payout *models.ArtistPayout) error {
	payout.ID = uuid.New()
	s.payouts[payout.StripePayoutID] = payout
	return nil
}

func (s *stubPayoutsRepo) Save(ctx context.Context, payout *models.ArtistPayout) error {
	s.payouts[payout.StripePayoutID] = payout
	return nil
}

func (s *stubPayoutsRepo) FindByStripePayoutIDForUpdate(ctx context.Context, stripePayoutID string) (*models.ArtistPayout, error) {
	if p, ok := s.payouts[stripePayoutID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPayoutsRepo) ListByArtist(ctx context.Context, artistID uuid.UUID, page pagination.Params) ([]models.ArtistPayout, error) {
	var out []models.ArtistPayout
	for _, p := range s.payouts {
		if p.ArtistID == artistID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubPayoutsRepo) FindPaymentAccount(ctx context.Context, artistID uuid.UUID) (*models.PaymentAccount, error) {
	if a, ok := s.accounts[artistID]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPayoutsRepo) FindPaymentAccountByStripeID(ctx context.Context, stripeAccountID string) (*models.PaymentAccount, error) {
	for _, a := range s.accounts {
		if a.StripeAccountID == stripeAccountID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPayoutsRepo) SavePaymentAccount(ctx context.Context, account *models.PaymentAccount) error {
	s.accounts[account.ArtistID] = account
	return nil
}

// ledgerRevenue tracks pending/withdrawn balances so the round-trip scenarios
// can assert net effects.
type ledgerRevenue struct {
	pending   decimal.Decimal
	withdrawn decimal.Decimal
	reversals int
	debitErr  error
}

func (s *ledgerRevenue) Credit(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, net decimal.Decimal, at time.Time) error {
	s.pending = s.pending.Add(net)
	return nil
}

func (s *ledgerRevenue) DebitForPayout(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, amount decimal.Decimal) error {
	if s.debitErr != nil {
		return s.debitErr
	}
	if s.pending.LessThan(amount) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient pending revenue")
	}
	s.pending = s.pending.Sub(amount)
	s.withdrawn = s.withdrawn.Add(amount)
	return nil
}

func (s *ledgerRevenue) ReversePayout(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, amount decimal.Decimal) error {
	s.reversals++
	s.pending = s.pending.Add(amount)
	s.withdrawn = s.withdrawn.Sub(amount)
	return nil
}

func (s *ledgerRevenue) DebitForRefund(ctx context.Context, tx *gorm.DB, artistID uuid.UUID, net decimal.Decimal) error {
	return nil
}

func (s *ledgerRevenue) Snapshot(ctx context.Context, artistID uuid.UUID) (*models.ArtistRevenue, error) {
	return &models.ArtistRevenue{
		ArtistID:         artistID,
		PendingRevenue:   s.pending,
		WithdrawnRevenue: s.withdrawn,
	}, nil
}

func (s *ledgerRevenue) History(ctx context.Context, artistID uuid.UUID) ([]models.ArtistRevenue, error) {
	return nil, nil
}

type stubPayoutClient struct {
	payouts int
	cancels []string
	err     error
}

func (s *stubPayoutClient) CreatePayout(ctx context.Context, params *stripe.PayoutParams) (*stripe.Payout, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.payouts++
	return &stripe.Payout{ID: "po_test_123", ArrivalDate: time.Now().Add(48 * time.Hour).Unix()}, nil
}

func (s *stubPayoutClient) CancelPayout(ctx context.Context, id string, params *stripe.PayoutParams) (*stripe.Payout, error) {
	s.cancels = append(s.cancels, id)
	return &stripe.Payout{ID: id}, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	svc     Service
	repo    *stubPayoutsRepo
	revenue *ledgerRevenue
	stripe  *stubPayoutClient
}

func newFixture(t *testing.T, pending string) (*fixture, uuid.UUID) {
	t.Helper()
	artistID := uuid.New()
	f := &fixture{
		repo:    newStubPayoutsRepo(),
		revenue: &ledgerRevenue{pending: dec(pending)},
		stripe:  &stubPayoutClient{},
	}
	f.repo.accounts[artistID] = &models.PaymentAccount{
		ID:              uuid.New(),
		ArtistID:        artistID,
		StripeAccountID: "acct_test",
		PayoutsEnabled:  true,
	}
	svc, err := NewService(f.repo, f.revenue, stubTxRunner{}, f.stripe)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	f.svc = svc
	return f, artistID
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRequestDebitsOptimistically(t *testing.T) {
	f, artistID := newFixture(t, "75.00")

	payout, err := f.svc.Request(context.Background(), artistID, RequestPayoutInput{Amount: dec("50.00")})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if payout.Status != enums.PayoutStatusPending {
		t.Fatalf("status %s", payout.Status)
	}
	if payout.StripePayoutID != "po_test_123" {
		t.Fatalf("external id %s", payout.StripePayoutID)
	}
	if !f.revenue.pending.Equal(dec("25.00")) || !f.revenue.withdrawn.Equal(dec("50.00")) {
		t.Fatalf("pending %s withdrawn %s", f.revenue.pending, f.revenue.withdrawn)
	}
}

func TestRequestWithoutLinkedAccount(t *testing.T) {
	f, _ := newFixture(t, "100.00")
	_, err := f.svc.Request(context.Background(), uuid.New(), RequestPayoutInput{Amount: dec("10.00")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if f.stripe.payouts != 0 {
		t.Fatal("processor payout should not be created")
	}
}

func TestRequestInsufficientBalance(t *testing.T) {
	f, artistID := newFixture(t, "10.00")
	_, err := f.svc.Request(context.Background(), artistID, RequestPayoutInput{Amount: dec("50.00")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if f.stripe.payouts != 0 {
		t.Fatal("processor payout should not be created on insufficient balance")
	}
}

func TestRequestProcessorFailureLeavesLedgerUntouched(t *testing.T) {
	f, artistID := newFixture(t, "75.00")
	f.stripe.err = errors.New("processor timeout")

	_, err := f.svc.Request(context.Background(), artistID, RequestPayoutInput{Amount: dec("50.00")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected retryable dependency error, got %v", err)
	}
	if !f.revenue.pending.Equal(dec("75.00")) || !f.revenue.withdrawn.Equal(dec("0")) {
		t.Fatalf("ledger mutated: pending %s withdrawn %s", f.revenue.pending, f.revenue.withdrawn)
	}
	if len(f.repo.payouts) != 0 {
		t.Fatal("payout row persisted despite processor failure")
	}
}

func TestFailedWebhookReversesExactlyOnce(t *testing.T) {
	f, artistID := newFixture(t, "75.00")
	if _, err := f.svc.Request(context.Background(), artistID, RequestPayoutInput{Amount: dec("50.00")}); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	reason := "account_closed"
	if err := f.svc.OnWebhookUpdate(context.Background(), "po_test_123", enums.PayoutStatusFailed, &reason, nil); err != nil {
		t.Fatalf("webhook update failed: %v", err)
	}

	// Net zero versus pre-payout state.
	if !f.revenue.pending.Equal(dec("75.00")) || !f.revenue.withdrawn.Equal(dec("0")) {
		t.Fatalf("pending %s withdrawn %s", f.revenue.pending, f.revenue.withdrawn)
	}
	stored := f.repo.payouts["po_test_123"]
	if stored.Status != enums.PayoutStatusFailed {
		t.Fatalf("status %s", stored.Status)
	}
	if stored.FailureReason == nil || *stored.FailureReason != "account_closed" {
		t.Fatal("failure reason not stored")
	}
	if stored.ReversedAt == nil {
		t.Fatal("reversal guard not stamped")
	}

	// Duplicate terminal webhook must not reverse twice.
	if err := f.svc.OnWebhookUpdate(context.Background(), "po_test_123", enums.PayoutStatusFailed, &reason, nil); err != nil {
		t.Fatalf("duplicate webhook errored: %v", err)
	}
	if f.revenue.reversals != 1 {
		t.Fatalf("reversed %d times", f.revenue.reversals)
	}
	if !f.revenue.pending.Equal(dec("75.00")) {
		t.Fatalf("pending drifted to %s", f.revenue.pending)
	}
}

func TestCanceledAfterFailedDoesNotReverseAgain(t *testing.T) {
	f, artistID := newFixture(t, "60.00")
	if _, err := f.svc.Request(context.Background(), artistID, RequestPayoutInput{Amount: dec("60.00")}); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if err := f.svc.OnWebhookUpdate(context.Background(), "po_test_123", enums.PayoutStatusFailed, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.OnWebhookUpdate(context.Background(), "po_test_123", enums.PayoutStatusCanceled, nil, nil); err != nil {
		t.Fatal(err)
	}
	if f.revenue.reversals != 1 {
		t.Fatalf("reversed %d times", f.revenue.reversals)
	}
}

func TestLatePaidEventKeepsReversedPayoutTerminal(t *testing.T) {
	f, artistID := newFixture(t, "75.00")
	if _, err := f.svc.Request(context.Background(), artistID, RequestPayoutInput{Amount: dec("50.00")}); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	reason := "account_closed"
	if err := f.svc.OnWebhookUpdate(context.Background(), "po_test_123", enums.PayoutStatusFailed, &reason, nil); err != nil {
		t.Fatal(err)
	}

	// Deliveries are unordered; a stale paid event lands after the reversal.
	arrival := time.Now().UTC()
	if err := f.svc.OnWebhookUpdate(context.Background(), "po_test_123", enums.PayoutStatusPaid, nil, &arrival); err != nil {
		t.Fatalf("late paid event errored: %v", err)
	}

	stored := f.repo.payouts["po_test_123"]
	if stored.Status != enums.PayoutStatusFailed {
		t.Fatalf("reversed payout resurrected to %s", stored.Status)
	}
	if f.revenue.reversals != 1 {
		t.Fatalf("reversed %d times", f.revenue.reversals)
	}
	if !f.revenue.pending.Equal(dec("75.00")) || !f.revenue.withdrawn.Equal(dec("0")) {
		t.Fatalf("ledger drifted: pending %s withdrawn %s", f.revenue.pending, f.revenue.withdrawn)
	}
}

func TestRequestCancelsProcessorPayoutWhenDebitFails(t *testing.T) {
	f, artistID := newFixture(t, "75.00")
	// The snapshot precheck passes, then a concurrent withdrawal wins the
	// row lock and the debit inside the transaction fails.
	f.revenue.debitErr = pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient pending revenue")

	_, err := f.svc.Request(context.Background(), artistID, RequestPayoutInput{Amount: dec("50.00")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.stripe.cancels) != 1 || f.stripe.cancels[0] != "po_test_123" {
		t.Fatalf("orphaned processor payout not canceled: %v", f.stripe.cancels)
	}
}

func TestUnknownPayoutIDIsIgnored(t *testing.T) {
	f, _ := newFixture(t, "10.00")
	if err := f.svc.OnWebhookUpdate(context.Background(), "po_manual_transfer", enums.PayoutStatusPaid, nil, nil); err != nil {
		t.Fatalf("unknown payout should be ignored, got %v", err)
	}
}

func TestPaidWebhookDoesNotReverse(t *testing.T) {
	f, artistID := newFixture(t, "75.00")
	if _, err := f.svc.Request(context.Background(), artistID, RequestPayoutInput{Amount: dec("50.00")}); err != nil {
		t.Fatal(err)
	}
	arrival := time.Now().UTC()
	if err := f.svc.OnWebhookUpdate(context.Background(), "po_test_123", enums.PayoutStatusPaid, nil, &arrival); err != nil {
		t.Fatal(err)
	}
	if f.revenue.reversals != 0 {
		t.Fatal("paid payout must not reverse")
	}
	if !f.revenue.withdrawn.Equal(dec("50.00")) {
		t.Fatalf("withdrawn %s", f.revenue.withdrawn)
	}
}

func TestUpdatePaymentAccountFlags(t *testing.T) {
	f, artistID := newFixture(t, "0")
	if err := f.svc.UpdatePaymentAccount(context.Background(), "acct_test", true, true); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !f.repo.accounts[artistID].DetailsSubmitted {
		t.Fatal("details flag not updated")
	}
	// Unlinked accounts are informational no-ops.
	if err := f.svc.UpdatePaymentAccount(context.Background(), "acct_unknown", false, false); err != nil {
		t.Fatalf("unknown account should be ignored, got %v", err)
	}
}
