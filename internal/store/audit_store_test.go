package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/AravindYuvraj/digital-wallet/internal/models"
)

func TestAuditStoreLog(t *testing.T) {
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO audit_logs") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 6 {
				t.Fatalf("unexpected args: %#v", args)
			}
			if args[0] == "" {
				t.Fatalf("expected generated id")
			}
			if args[1] != "7" || args[2] != "wallet.credit" || args[3] != "transaction" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAuditStore(stubDB{})
	if err := store.Log(context.Background(), execer, "7", "wallet.credit", "transaction", "tx-1", "{}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuditStoreList(t *testing.T) {
	store := NewAuditStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM audit_logs") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != 10 || args[1] != 0 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.AuditLog) = []models.AuditLog{{ID: "log-1", Action: "user.create"}}
			return nil
		},
	})
	logs, err := store.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != "user.create" {
		t.Fatalf("unexpected logs: %#v", logs)
	}
}
