package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/AravindYuvraj/digital-wallet/internal/db"
	"github.com/AravindYuvraj/digital-wallet/internal/metrics"
	"github.com/AravindYuvraj/digital-wallet/internal/models"
	"github.com/AravindYuvraj/digital-wallet/internal/money"
	"github.com/AravindYuvraj/digital-wallet/internal/store"
	"github.com/AravindYuvraj/digital-wallet/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSameUserTransfer  = errors.New("cannot transfer to same user")
)

type UserStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, userID int64) (models.User, error)
	UpdateBalance(ctx context.Context, tx store.Getter, userID int64, balance int64) (models.User, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(userID int64, update websocket.BalanceUpdate)
}

type WalletService struct {
	txRunner     db.TxRunner
	users        UserStore
	transactions TransactionStore
	audit        AuditStore
	hub          BalanceHub
	log          *logrus.Logger
}

func NewWalletService(txRunner db.TxRunner, users UserStore, transactions TransactionStore, audit AuditStore, hub BalanceHub, log *logrus.Logger) *WalletService {
	return &WalletService{
		txRunner:     txRunner,
		users:        users,
		transactions: transactions,
		audit:        audit,
		hub:          hub,
		log:          log,
	}
}

type CreditRequest struct {
	UserID      int64
	AmountMinor int64
	Description string
}

type WithdrawRequest struct {
	UserID      int64
	AmountMinor int64
	Description string
}

type TransferRequest struct {
	FromUserID  int64
	ToUserID    int64
	AmountMinor int64
	Description string
}

// WalletUpdate reports the outcome of one balance mutation.
type WalletUpdate struct {
	TransactionID string
	UserID        int64
	AmountMinor   int64
	BalanceMinor  int64
	UpdatedAt     time.Time
}

// Credit increments the user's balance and appends a CREDIT row to the
// transaction log, both inside one serializable transaction.
func (s *WalletService) Credit(ctx context.Context, req CreditRequest) (WalletUpdate, error) {
	if req.AmountMinor <= 0 {
		return WalletUpdate{}, ErrInvalidAmount
	}
	transactionID := uuid.NewString()
	var updated models.User
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, req.UserID)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrUserNotFound
			}
			return err
		}
		updated, err = s.users.UpdateBalance(ctx, tx, req.UserID, user.Balance+req.AmountMinor)
		if err != nil {
			return err
		}
		if err := s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:          transactionID,
			UserID:      req.UserID,
			Type:        models.TypeCredit,
			Amount:      req.AmountMinor,
			Description: req.Description,
		}); err != nil {
			return err
		}
		return s.logAudit(ctx, tx, req.UserID, "wallet.credit", transactionID, req.AmountMinor, req.Description)
	})
	if err != nil {
		s.recordFailure("credit", err)
		return WalletUpdate{}, err
	}
	metrics.WalletOperationsTotal.WithLabelValues("credit").Inc()
	s.broadcast(updated)
	return WalletUpdate{
		TransactionID: transactionID,
		UserID:        req.UserID,
		AmountMinor:   req.AmountMinor,
		BalanceMinor:  updated.Balance,
		UpdatedAt:     updated.UpdatedAt,
	}, nil
}

// Withdraw decrements the balance, rejecting any debit that would take
// it below zero, and appends a DEBIT row.
func (s *WalletService) Withdraw(ctx context.Context, req WithdrawRequest) (WalletUpdate, error) {
	if req.AmountMinor <= 0 {
		return WalletUpdate{}, ErrInvalidAmount
	}
	transactionID := uuid.NewString()
	var updated models.User
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, req.UserID)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrUserNotFound
			}
			return err
		}
		if user.Balance < req.AmountMinor {
			return ErrInsufficientFunds
		}
		updated, err = s.users.UpdateBalance(ctx, tx, req.UserID, user.Balance-req.AmountMinor)
		if err != nil {
			return err
		}
		if err := s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:          transactionID,
			UserID:      req.UserID,
			Type:        models.TypeDebit,
			Amount:      req.AmountMinor,
			Description: req.Description,
		}); err != nil {
			return err
		}
		return s.logAudit(ctx, tx, req.UserID, "wallet.debit", transactionID, req.AmountMinor, req.Description)
	})
	if err != nil {
		s.recordFailure("debit", err)
		return WalletUpdate{}, err
	}
	metrics.WalletOperationsTotal.WithLabelValues("debit").Inc()
	s.broadcast(updated)
	return WalletUpdate{
		TransactionID: transactionID,
		UserID:        req.UserID,
		AmountMinor:   req.AmountMinor,
		BalanceMinor:  updated.Balance,
		UpdatedAt:     updated.UpdatedAt,
	}, nil
}

// Transfer moves amount between two users atomically, logging a
// TRANSFER_OUT row for the sender and TRANSFER_IN for the recipient.
// Rows are locked in ascending-id order to avoid deadlocks.
func (s *WalletService) Transfer(ctx context.Context, req TransferRequest) (WalletUpdate, error) {
	if req.AmountMinor <= 0 {
		return WalletUpdate{}, ErrInvalidAmount
	}
	if req.FromUserID == req.ToUserID {
		return WalletUpdate{}, ErrSameUserTransfer
	}
	outTransactionID := uuid.NewString()
	var updatedFrom, updatedTo models.User
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		from, to, err := s.lockPair(ctx, tx, req.FromUserID, req.ToUserID)
		if err != nil {
			return err
		}
		if from.Balance < req.AmountMinor {
			return ErrInsufficientFunds
		}
		updatedFrom, err = s.users.UpdateBalance(ctx, tx, req.FromUserID, from.Balance-req.AmountMinor)
		if err != nil {
			return err
		}
		updatedTo, err = s.users.UpdateBalance(ctx, tx, req.ToUserID, to.Balance+req.AmountMinor)
		if err != nil {
			return err
		}
		toID := req.ToUserID
		if err := s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:              outTransactionID,
			UserID:          req.FromUserID,
			Type:            models.TypeTransferOut,
			RecipientUserID: &toID,
			Amount:          req.AmountMinor,
			Description:     req.Description,
		}); err != nil {
			return err
		}
		fromID := req.FromUserID
		if err := s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:              uuid.NewString(),
			UserID:          req.ToUserID,
			Type:            models.TypeTransferIn,
			RecipientUserID: &fromID,
			Amount:          req.AmountMinor,
			Description:     req.Description,
		}); err != nil {
			return err
		}
		return s.logAudit(ctx, tx, req.FromUserID, "wallet.transfer", outTransactionID, req.AmountMinor, req.Description)
	})
	if err != nil {
		s.recordFailure("transfer", err)
		return WalletUpdate{}, err
	}
	metrics.WalletOperationsTotal.WithLabelValues("transfer").Inc()
	s.broadcast(updatedFrom)
	s.broadcast(updatedTo)
	return WalletUpdate{
		TransactionID: outTransactionID,
		UserID:        req.FromUserID,
		AmountMinor:   req.AmountMinor,
		BalanceMinor:  updatedFrom.Balance,
		UpdatedAt:     updatedFrom.UpdatedAt,
	}, nil
}

func (s *WalletService) lockPair(ctx context.Context, tx *sqlx.Tx, fromID, toID int64) (models.User, models.User, error) {
	firstID, secondID := fromID, toID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	locked := make(map[int64]models.User, 2)
	for _, id := range []int64{firstID, secondID} {
		user, err := s.users.GetForUpdate(ctx, tx, id)
		if err != nil {
			if err == sql.ErrNoRows {
				if id == fromID {
					return models.User{}, models.User{}, ErrUserNotFound
				}
				return models.User{}, models.User{}, ErrRecipientNotFound
			}
			return models.User{}, models.User{}, err
		}
		locked[id] = user
	}
	return locked[fromID], locked[toID], nil
}

func (s *WalletService) logAudit(ctx context.Context, tx *sqlx.Tx, userID int64, action, transactionID string, amountMinor int64, description string) error {
	data, _ := json.Marshal(map[string]string{
		"amount":      money.FormatMinor(amountMinor),
		"description": description,
	})
	return s.audit.Log(ctx, tx, strconv.FormatInt(userID, 10), action, "transaction", transactionID, string(data))
}

func (s *WalletService) broadcast(user models.User) {
	s.hub.BroadcastBalance(user.ID, websocket.BalanceUpdate{
		UserID:      user.ID,
		Balance:     money.FormatMinor(user.Balance),
		LastUpdated: user.UpdatedAt,
	})
}

func (s *WalletService) recordFailure(operation string, err error) {
	metrics.WalletOperationsFailed.Inc()
	s.log.WithError(err).WithField("operation", operation).Warn("wallet operation failed")
}
