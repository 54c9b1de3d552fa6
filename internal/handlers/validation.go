package handlers

import (
	"errors"
	"strconv"

	"github.com/AravindYuvraj/digital-wallet/internal/money"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 100
)

var errInvalidUserID = errors.New("invalid user id")

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidUserID
	}
	return id, nil
}

func parseAmountMinor(raw string) (int64, error) {
	amount, err := money.ParseMinor(raw)
	if err != nil || amount <= 0 {
		return 0, money.ErrInvalidAmount
	}
	return amount, nil
}

func parseOffset(raw string) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// parseLimit clamps the requested page size to maxPageLimit.
func parseLimit(raw string) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return defaultPageLimit
	}
	if value > maxPageLimit {
		return maxPageLimit
	}
	return value
}
