package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/kvstore"
	"github.com/devotionsim/proposal-api/internal/metrics"
	"github.com/devotionsim/proposal-api/internal/notify"
	"github.com/devotionsim/proposal-api/internal/payment"
	"github.com/devotionsim/proposal-api/internal/repository"
	"github.com/devotionsim/proposal-api/internal/service"
)

type fakeProcessor struct {
	mu        sync.Mutex
	orders    []payment.Order
	linkID    string
	createErr error
	event     *payment.SettlementEvent
	validSig  string
}

func (f *fakeProcessor) Name() string { return "fake" }

func (f *fakeProcessor) CreatePaymentLink(_ context.Context, order payment.Order) (*payment.PaymentLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.orders = append(f.orders, order)
	id := f.linkID
	if id == "" {
		id = "plink_test"
	}
	return &payment.PaymentLink{ID: id, OrderID: id, URL: "https://pay.example/" + id}, nil
}

func (f *fakeProcessor) SignatureRequired() bool { return f.validSig != "" }

func (f *fakeProcessor) VerifySignature(_ []byte, signature string) bool {
	return signature == f.validSig
}

func (f *fakeProcessor) ParseEvent([]byte) (*payment.SettlementEvent, error) {
	if f.event == nil {
		return nil, payment.ErrUnknownEvent
	}
	return f.event, nil
}

func (f *fakeProcessor) lastOrder() payment.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[len(f.orders)-1]
}

func (f *fakeProcessor) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (r *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return r.err
}

func (r *recordingNotifier) sent() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.messages...)
}

// testEnv wires the services over one in-memory store
type testEnv struct {
	store       *kvstore.MemoryStore
	processor   *fakeProcessor
	notifier    *recordingNotifier
	metrics     *metrics.Metrics
	proposalRep *repository.ProposalRepository
	paymentRepo *repository.PaymentRepository
	settings    *service.SettingsService
	proposals   *service.ProposalService
	payments    *service.PaymentService
	lifecycle   *service.LifecycleService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	env := &testEnv{
		store:     kvstore.NewMemoryStore(),
		processor: &fakeProcessor{},
		notifier:  &recordingNotifier{},
		metrics:   metrics.New(),
	}

	env.proposalRep = repository.NewProposalRepository(env.store, time.Second, 50)
	env.paymentRepo = repository.NewPaymentRepository(env.store)
	acceptanceRepo := repository.NewAcceptanceRepository(env.store)

	env.settings = service.NewSettingsService(repository.NewSettingsRepository(env.store), logger)
	env.proposals = service.NewProposalService(env.proposalRep, env.paymentRepo, acceptanceRepo, env.settings, env.metrics, 10, logger)
	env.payments = service.NewPaymentService(env.paymentRepo, env.processor, env.notifier, env.metrics, "https://proposals.example", "EUR", time.Second, logger)
	env.lifecycle = service.NewLifecycleService(env.proposals, env.payments, env.settings, acceptanceRepo, env.notifier, env.metrics, time.Second, logger)
	return env
}

func rentalRequest() *domain.CreateProposalRequest {
	return &domain.CreateProposalRequest{
		ProposalType:  domain.ProposalTypeRental,
		ClientName:    "Circuito Jerez",
		ClientLogoURL: "https://cdn.example/logo.png",
		Rental: &domain.RentalQuoteRequest{
			NumberOfSimulators: 2,
			NumberOfDays:       3,
		},
	}
}

func purchaseRequest() *domain.CreateProposalRequest {
	return &domain.CreateProposalRequest{
		ProposalType:    domain.ProposalTypePurchase,
		ClientName:      "MotoGP Academy",
		ClientLogoURL:   "https://cdn.example/logo.png",
		PurchaseDetails: &domain.PurchaseDetails{},
	}
}

func acceptRequest() domain.AcceptProposalRequest {
	return domain.AcceptProposalRequest{
		FullName: "Ana García",
		Email:    "ana@example.com",
		Phone:    "+34 600 000 000",
	}
}

// storeExpired writes a proposal whose validity already ended
func (e *testEnv) storeExpired(t *testing.T, id string) {
	t.Helper()
	created := time.Now().Add(-30 * 24 * time.Hour).UTC()
	p := &domain.Proposal{
		ID:            id,
		ProposalType:  domain.ProposalTypeRental,
		ClientName:    "Old Client",
		ClientLogoURL: "https://cdn.example/logo.png",
		RentalDetails: &domain.RentalDetails{BasePrice: 750, Subtotal: 750, Total: 750},
		CreatedAt:     created,
		ExpiresAt:     created.Add(domain.ProposalValidity),
	}
	if err := e.proposalRep.Create(context.Background(), p); err != nil {
		t.Fatalf("store expired proposal: %v", err)
	}
}
