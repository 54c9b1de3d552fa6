package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/AravindYuvraj/digital-wallet/internal/models"
	"github.com/AravindYuvraj/digital-wallet/internal/money"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func valueToString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case []byte:
		return string(v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func userProjection(user models.User) map[string]any {
	return map[string]any{
		"id":           user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"phone_number": user.PhoneNumber,
		"balance":      money.FormatMinor(user.Balance),
		"created_at":   user.CreatedAt,
		"updated_at":   user.UpdatedAt,
	}
}

func transactionProjection(tx models.Transaction) map[string]any {
	projection := map[string]any{
		"id":               tx.ID,
		"user_id":          tx.UserID,
		"transaction_type": tx.Type,
		"amount":           money.FormatMinor(tx.Amount),
		"description":      tx.Description,
		"created_at":       tx.CreatedAt,
	}
	if tx.RecipientUserID != nil {
		projection["recipient_user_id"] = *tx.RecipientUserID
	}
	return projection
}
