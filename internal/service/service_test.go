package service

import (
	"context"
	"log"
	"os"
	"testing"

	"go-gin-happenings/internal/testutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// testDB 只有整合測試使用；連不上時為 nil
var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	pool, cleanup, err := testutil.SetupDatabase()
	if err != nil {
		log.Printf("test database unavailable, service integration tests will be skipped: %v", err)
	} else {
		testDB = pool
	}

	code := m.Run()

	if cleanup != nil {
		cleanup()
	}
	os.Exit(code)
}

func getTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testDB == nil {
		t.Skip("test database is not available")
	}
	if err := testutil.TruncateAll(context.Background(), testDB); err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
	return testDB
}

// fakeTransactor 直接執行 fn，記錄 transaction 次數與結果
type fakeTransactor struct {
	calls int
	err   error
}

func (f *fakeTransactor) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	f.err = fn(nil)
	return f.err
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
