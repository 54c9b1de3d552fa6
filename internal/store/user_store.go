package store

import (
	"context"

	"github.com/AravindYuvraj/digital-wallet/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Getter, username, email, phoneNumber string) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO users (username, email, phone_number)
		VALUES ($1, $2, $3)
		RETURNING id
	`, username, email, phoneNumber)
	return id, err
}

func (s *UserStore) GetByID(ctx context.Context, userID int64) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, phone_number, balance, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var rows []models.User
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, username, email, phone_number, balance, created_at, updated_at
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateProfile applies the non-nil fields. NULL arguments fall through
// to the stored value, so an omitted field is never overwritten.
func (s *UserStore) UpdateProfile(ctx context.Context, tx Execer, userID int64, username, email, phoneNumber *string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET username = COALESCE($1, username),
		    email = COALESCE($2, email),
		    phone_number = COALESCE($3, phone_number),
		    updated_at = NOW()
		WHERE id = $4
	`, username, email, phoneNumber, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetForUpdate locks the user row for the duration of the enclosing
// transaction. Balance mutations must read through here.
func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, userID int64) (models.User, error) {
	var row models.User
	err := tx.GetContext(ctx, &row, `
		SELECT id, username, email, phone_number, balance, created_at, updated_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) UpdateBalance(ctx context.Context, tx Getter, userID int64, balance int64) (models.User, error) {
	var row models.User
	err := tx.GetContext(ctx, &row, `
		UPDATE users
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, username, email, phone_number, balance, created_at, updated_at
	`, balance, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}
