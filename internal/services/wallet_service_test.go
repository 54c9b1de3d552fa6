package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/AravindYuvraj/digital-wallet/internal/models"
	"github.com/AravindYuvraj/digital-wallet/internal/store"
	"github.com/AravindYuvraj/digital-wallet/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// fakeTxRunner serializes callbacks with a mutex, standing in for the
// serializable database transaction the real runner provides.
type fakeTxRunner struct {
	mu  sync.Mutex
	err error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(nil)
}

type memUserStore struct {
	users map[int64]models.User
}

func newMemUserStore(users ...models.User) *memUserStore {
	m := &memUserStore{users: make(map[int64]models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUserStore) GetForUpdate(_ context.Context, _ store.Getter, userID int64) (models.User, error) {
	user, ok := m.users[userID]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (m *memUserStore) UpdateBalance(_ context.Context, _ store.Getter, userID int64, balance int64) (models.User, error) {
	user, ok := m.users[userID]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	user.Balance = balance
	user.UpdatedAt = time.Now().UTC()
	m.users[userID] = user
	return user, nil
}

type captureTransactionStore struct {
	inputs []store.TransactionInput
	err    error
}

func (c *captureTransactionStore) Create(_ context.Context, _ store.Execer, input store.TransactionInput) error {
	if c.err != nil {
		return c.err
	}
	c.inputs = append(c.inputs, input)
	return nil
}

type stubAuditStore struct{}

func (stubAuditStore) Log(context.Context, store.Execer, string, string, string, string, string) error {
	return nil
}

type captureHub struct {
	mu      sync.Mutex
	updates []websocket.BalanceUpdate
}

func (h *captureHub) BroadcastBalance(_ int64, update websocket.BalanceUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, update)
}

func newTestService(users *memUserStore, transactions *captureTransactionStore, hub *captureHub) *WalletService {
	return NewWalletService(&fakeTxRunner{}, users, transactions, stubAuditStore{}, hub, logrus.New())
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(newMemUserStore(), &captureTransactionStore{}, &captureHub{})
	for _, amount := range []int64{0, -100} {
		if _, err := svc.Credit(context.Background(), CreditRequest{UserID: 1, AmountMinor: amount}); err != ErrInvalidAmount {
			t.Fatalf("expected ErrInvalidAmount for %d, got %v", amount, err)
		}
	}
}

func TestCreditUnknownUser(t *testing.T) {
	svc := newTestService(newMemUserStore(), &captureTransactionStore{}, &captureHub{})
	if _, err := svc.Credit(context.Background(), CreditRequest{UserID: 42, AmountMinor: 100}); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreditAppendsTransactionAndUpdatesBalance(t *testing.T) {
	users := newMemUserStore(models.User{ID: 1, Balance: 0})
	transactions := &captureTransactionStore{}
	hub := &captureHub{}
	svc := newTestService(users, transactions, hub)

	update, err := svc.Credit(context.Background(), CreditRequest{UserID: 1, AmountMinor: 5000, Description: "top up"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update.BalanceMinor != 5000 {
		t.Fatalf("expected balance 5000, got %d", update.BalanceMinor)
	}
	if len(transactions.inputs) != 1 {
		t.Fatalf("expected one transaction row, got %d", len(transactions.inputs))
	}
	row := transactions.inputs[0]
	if row.Type != models.TypeCredit || row.Amount != 5000 || row.Description != "top up" {
		t.Fatalf("unexpected transaction row: %#v", row)
	}
	if row.RecipientUserID != nil {
		t.Fatalf("credit must not carry a recipient, got %#v", row.RecipientUserID)
	}
	if len(hub.updates) != 1 || hub.updates[0].Balance != "50.00" {
		t.Fatalf("unexpected broadcasts: %#v", hub.updates)
	}
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	users := newMemUserStore(models.User{ID: 1, Balance: 100})
	transactions := &captureTransactionStore{}
	svc := newTestService(users, transactions, &captureHub{})

	if _, err := svc.Withdraw(context.Background(), WithdrawRequest{UserID: 1, AmountMinor: 500}); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if users.users[1].Balance != 100 {
		t.Fatalf("balance must be unchanged, got %d", users.users[1].Balance)
	}
	if len(transactions.inputs) != 0 {
		t.Fatalf("rejected debit must not be logged, got %d rows", len(transactions.inputs))
	}
}

func TestWithdrawDebitsBalance(t *testing.T) {
	users := newMemUserStore(models.User{ID: 1, Balance: 1000})
	transactions := &captureTransactionStore{}
	svc := newTestService(users, transactions, &captureHub{})

	update, err := svc.Withdraw(context.Background(), WithdrawRequest{UserID: 1, AmountMinor: 300})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update.BalanceMinor != 700 {
		t.Fatalf("expected balance 700, got %d", update.BalanceMinor)
	}
	if len(transactions.inputs) != 1 || transactions.inputs[0].Type != models.TypeDebit {
		t.Fatalf("unexpected transaction rows: %#v", transactions.inputs)
	}
}

func TestTransferSameUser(t *testing.T) {
	svc := newTestService(newMemUserStore(models.User{ID: 1, Balance: 1000}), &captureTransactionStore{}, &captureHub{})
	if _, err := svc.Transfer(context.Background(), TransferRequest{FromUserID: 1, ToUserID: 1, AmountMinor: 100}); err != ErrSameUserTransfer {
		t.Fatalf("expected ErrSameUserTransfer, got %v", err)
	}
}

func TestTransferUnknownRecipient(t *testing.T) {
	svc := newTestService(newMemUserStore(models.User{ID: 1, Balance: 1000}), &captureTransactionStore{}, &captureHub{})
	if _, err := svc.Transfer(context.Background(), TransferRequest{FromUserID: 1, ToUserID: 99, AmountMinor: 100}); err != ErrRecipientNotFound {
		t.Fatalf("expected ErrRecipientNotFound, got %v", err)
	}
}

func TestTransferMovesFundsAtomically(t *testing.T) {
	users := newMemUserStore(models.User{ID: 1, Balance: 1000}, models.User{ID: 2, Balance: 0})
	transactions := &captureTransactionStore{}
	hub := &captureHub{}
	svc := newTestService(users, transactions, hub)

	update, err := svc.Transfer(context.Background(), TransferRequest{FromUserID: 1, ToUserID: 2, AmountMinor: 300, Description: "rent"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update.BalanceMinor != 700 {
		t.Fatalf("expected sender balance 700, got %d", update.BalanceMinor)
	}
	if users.users[2].Balance != 300 {
		t.Fatalf("expected recipient balance 300, got %d", users.users[2].Balance)
	}
	if len(transactions.inputs) != 2 {
		t.Fatalf("expected TRANSFER_OUT and TRANSFER_IN rows, got %d", len(transactions.inputs))
	}
	out, in := transactions.inputs[0], transactions.inputs[1]
	if out.Type != models.TypeTransferOut || out.UserID != 1 || out.RecipientUserID == nil || *out.RecipientUserID != 2 {
		t.Fatalf("unexpected TRANSFER_OUT row: %#v", out)
	}
	if in.Type != models.TypeTransferIn || in.UserID != 2 || in.RecipientUserID == nil || *in.RecipientUserID != 1 {
		t.Fatalf("unexpected TRANSFER_IN row: %#v", in)
	}
	if len(hub.updates) != 2 {
		t.Fatalf("expected broadcasts for both parties, got %d", len(hub.updates))
	}
}

// Concurrent credits against one wallet must never lose an update; the
// serialized tx runner models what the serializable transaction plus
// row lock guarantee in production.
func TestConcurrentCreditsDoNotLoseUpdates(t *testing.T) {
	const workers = 50
	users := newMemUserStore(models.User{ID: 1, Balance: 0})
	svc := newTestService(users, &captureTransactionStore{}, &captureHub{})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Credit(context.Background(), CreditRequest{UserID: 1, AmountMinor: 100}); err != nil {
				t.Errorf("credit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := users.users[1].Balance; got != workers*100 {
		t.Fatalf("lost update: expected %d, got %d", workers*100, got)
	}
}
