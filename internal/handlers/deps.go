package handlers

import (
	"context"

	"github.com/AravindYuvraj/digital-wallet/internal/models"
	"github.com/AravindYuvraj/digital-wallet/internal/services"
	"github.com/AravindYuvraj/digital-wallet/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Getter, username, email, phoneNumber string) (int64, error)
	GetByID(ctx context.Context, userID int64) (models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	UpdateProfile(ctx context.Context, tx store.Execer, userID int64, username, email, phoneNumber *string) (int64, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, userID int64, txType string, limit, offset int) ([]models.Transaction, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type WalletService interface {
	Credit(ctx context.Context, req services.CreditRequest) (services.WalletUpdate, error)
	Withdraw(ctx context.Context, req services.WithdrawRequest) (services.WalletUpdate, error)
	Transfer(ctx context.Context, req services.TransferRequest) (services.WalletUpdate, error)
}
