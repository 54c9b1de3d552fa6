package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/AravindYuvraj/digital-wallet/internal/models"
	"github.com/AravindYuvraj/digital-wallet/internal/money"
	"github.com/AravindYuvraj/digital-wallet/internal/services"
	"github.com/AravindYuvraj/digital-wallet/internal/websocket"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load balance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":      user.ID,
		"balance":      money.FormatMinor(user.Balance),
		"last_updated": user.UpdatedAt,
	})
}

// walletMutationRequest accepts amount and description from the JSON
// body, falling back to query parameters. Amount may arrive as a JSON
// number or a decimal string.
type walletMutationRequest struct {
	Amount          any    `json:"amount"`
	Description     string `json:"description"`
	RecipientUserID any    `json:"recipient_user_id"`
}

func decodeWalletRequest(r *http.Request) walletMutationRequest {
	var req walletMutationRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	query := r.URL.Query()
	if req.Amount == nil && query.Get("amount") != "" {
		req.Amount = query.Get("amount")
	}
	if req.Description == "" {
		req.Description = query.Get("description")
	}
	return req
}

func (h *Handler) AddMoney(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := decodeWalletRequest(r)
	amountMinor, err := parseAmountMinor(valueToString(req.Amount))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	update, err := h.wallet.Credit(r.Context(), services.CreditRequest{
		UserID:      userID,
		AmountMinor: amountMinor,
		Description: req.Description,
	})
	if err != nil {
		h.respondWalletError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":          userID,
		"amount":           money.FormatMinor(update.AmountMinor),
		"new_balance":      money.FormatMinor(update.BalanceMinor),
		"transaction_type": models.TypeCredit,
	})
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := decodeWalletRequest(r)
	amountMinor, err := parseAmountMinor(valueToString(req.Amount))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	update, err := h.wallet.Withdraw(r.Context(), services.WithdrawRequest{
		UserID:      userID,
		AmountMinor: amountMinor,
		Description: req.Description,
	})
	if err != nil {
		h.respondWalletError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":          userID,
		"amount":           money.FormatMinor(update.AmountMinor),
		"new_balance":      money.FormatMinor(update.BalanceMinor),
		"transaction_type": models.TypeDebit,
	})
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := decodeWalletRequest(r)
	recipientID, err := parseUserID(valueToString(req.RecipientUserID))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid recipient user id")
		return
	}
	amountMinor, err := parseAmountMinor(valueToString(req.Amount))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	update, err := h.wallet.Transfer(r.Context(), services.TransferRequest{
		FromUserID:  userID,
		ToUserID:    recipientID,
		AmountMinor: amountMinor,
		Description: req.Description,
	})
	if err != nil {
		h.respondWalletError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":           userID,
		"recipient_user_id": recipientID,
		"amount":            money.FormatMinor(update.AmountMinor),
		"new_balance":       money.FormatMinor(update.BalanceMinor),
		"transaction_type":  models.TypeTransferOut,
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.users.GetByID(r.Context(), userID); err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	query := r.URL.Query()
	offset := parseOffset(query.Get("offset"))
	limit := parseLimit(query.Get("limit"))
	txType := query.Get("type")
	transactions, err := h.transactions.ListByUser(r.Context(), userID, txType, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	projections := make([]map[string]any, 0, len(transactions))
	for _, tx := range transactions {
		projections = append(projections, transactionProjection(tx))
	}
	respondJSON(w, http.StatusOK, projections)
}

func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r.URL.Query().Get("user_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	websocket.ServeWS(w, r, h.hub, userID)
}

func (h *Handler) respondWalletError(w http.ResponseWriter, err error) {
	switch err {
	case services.ErrUserNotFound:
		respondError(w, http.StatusNotFound, "user not found")
	case services.ErrRecipientNotFound:
		respondError(w, http.StatusNotFound, "recipient not found")
	case services.ErrInvalidAmount:
		respondError(w, http.StatusBadRequest, "invalid_amount")
	case services.ErrInsufficientFunds:
		respondError(w, http.StatusBadRequest, "insufficient_funds")
	case services.ErrSameUserTransfer:
		respondError(w, http.StatusBadRequest, "same_user_transfer")
	default:
		respondError(w, http.StatusInternalServerError, "wallet_operation_failed")
	}
}
