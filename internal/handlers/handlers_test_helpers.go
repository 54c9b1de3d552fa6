package handlers

import (
	"context"

	"github.com/AravindYuvraj/digital-wallet/internal/config"
	"github.com/AravindYuvraj/digital-wallet/internal/models"
	"github.com/AravindYuvraj/digital-wallet/internal/services"
	"github.com/AravindYuvraj/digital-wallet/internal/store"
	"github.com/AravindYuvraj/digital-wallet/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn        func(ctx context.Context, tx store.Getter, username, email, phoneNumber string) (int64, error)
	getByIDFn       func(ctx context.Context, userID int64) (models.User, error)
	listFn          func(ctx context.Context, limit, offset int) ([]models.User, error)
	updateProfileFn func(ctx context.Context, tx store.Execer, userID int64, username, email, phoneNumber *string) (int64, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Getter, username, email, phoneNumber string) (int64, error) {
	if s.createFn == nil {
		return 1, nil
	}
	return s.createFn(ctx, tx, username, email, phoneNumber)
}

func (s stubUserStore) GetByID(ctx context.Context, userID int64) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

func (s stubUserStore) UpdateProfile(ctx context.Context, tx store.Execer, userID int64, username, email, phoneNumber *string) (int64, error) {
	if s.updateProfileFn == nil {
		return 1, nil
	}
	return s.updateProfileFn(ctx, tx, userID, username, email, phoneNumber)
}

type stubTransactionStore struct {
	listByUserFn func(ctx context.Context, userID int64, txType string, limit, offset int) ([]models.Transaction, error)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID int64, txType string, limit, offset int) ([]models.Transaction, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, txType, limit, offset)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubWalletService struct {
	creditFn   func(ctx context.Context, req services.CreditRequest) (services.WalletUpdate, error)
	withdrawFn func(ctx context.Context, req services.WithdrawRequest) (services.WalletUpdate, error)
	transferFn func(ctx context.Context, req services.TransferRequest) (services.WalletUpdate, error)
}

func (s stubWalletService) Credit(ctx context.Context, req services.CreditRequest) (services.WalletUpdate, error) {
	if s.creditFn == nil {
		return services.WalletUpdate{}, nil
	}
	return s.creditFn(ctx, req)
}

func (s stubWalletService) Withdraw(ctx context.Context, req services.WithdrawRequest) (services.WalletUpdate, error) {
	if s.withdrawFn == nil {
		return services.WalletUpdate{}, nil
	}
	return s.withdrawFn(ctx, req)
}

func (s stubWalletService) Transfer(ctx context.Context, req services.TransferRequest) (services.WalletUpdate, error) {
	if s.transferFn == nil {
		return services.WalletUpdate{}, nil
	}
	return s.transferFn(ctx, req)
}

func newTestHandler(txRunner fakeTxRunner, users UserStore, transactions TransactionStore, audit AuditStore, wallet WalletService) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		AllowedOrigins: "*",
		LogLevel:       "error",
	}
	return New(txRunner, cfg, users, transactions, audit, wallet, websocket.NewHub(), logrus.New())
}
