package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AravindYuvraj/digital-wallet/internal/store"
	"github.com/AravindYuvraj/digital-wallet/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

type createUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateUsername(req.Username); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidatePhoneNumber(req.PhoneNumber); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var userID int64
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		id, err := h.users.Create(r.Context(), tx, req.Username, req.Email, req.PhoneNumber)
		if err != nil {
			return err
		}
		userID = id
		data, _ := json.Marshal(map[string]string{
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		})
		actor := strconv.FormatInt(id, 10)
		return h.audit.Log(r.Context(), tx, actor, "user.create", "user", actor, string(data))
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			respondError(w, http.StatusConflict, "duplicate_user_field")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create user")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, userProjection(user))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	offset := parseOffset(query.Get("offset"))
	limit := parseLimit(query.Get("limit"))
	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load users")
		return
	}
	projections := make([]map[string]any, 0, len(users))
	for _, user := range users {
		projections = append(projections, userProjection(user))
	}
	respondJSON(w, http.StatusOK, projections)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
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
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, userProjection(user))
}

// updateUserRequest distinguishes an omitted field (nil pointer) from a
// supplied one; supplied values still have to pass validation, so an
// explicit empty string is rejected rather than silently ignored.
type updateUserRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Username != nil {
		if err := validator.ValidateUsername(*req.Username); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Email != nil {
		if err := validator.ValidateEmail(*req.Email); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.PhoneNumber != nil {
		if err := validator.ValidatePhoneNumber(*req.PhoneNumber); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.users.UpdateProfile(r.Context(), tx, userID, req.Username, req.Email, req.PhoneNumber)
		if err != nil {
			return err
		}
		if rows == 0 {
			return sql.ErrNoRows
		}
		data, _ := json.Marshal(map[string]bool{
			"username":     req.Username != nil,
			"email":        req.Email != nil,
			"phone_number": req.PhoneNumber != nil,
		})
		actor := strconv.FormatInt(userID, 10)
		return h.audit.Log(r.Context(), tx, actor, "user.update", "user", actor, string(data))
	})
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		if store.IsUniqueViolation(err) {
			respondError(w, http.StatusConflict, "duplicate_user_field")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to update user")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, userProjection(user))
}
