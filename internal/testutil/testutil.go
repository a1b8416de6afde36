package testutil

import (
	"context"
	"fmt"
	"log"

	"go-gin-happenings/config"
	"go-gin-happenings/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// 多個套件共用同一個測試 DB，以 advisory lock 讓各套件依序執行
const testDatabaseLockKey = 7411

// SetupDatabase 連線測試 DB、取得套件鎖並套用 migration
func SetupDatabase() (*pgxpool.Pool, func(), error) {
	cfg := config.LoadTestConfig()
	ctx := context.Background()

	testDB, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize test database: %v", err)
	}

	lockConn, err := testDB.Acquire(ctx)
	if err != nil {
		testDB.Close()
		return nil, nil, fmt.Errorf("failed to acquire lock connection: %v", err)
	}
	if _, err := lockConn.Exec(ctx, "SELECT pg_advisory_lock($1)", testDatabaseLockKey); err != nil {
		lockConn.Release()
		testDB.Close()
		return nil, nil, fmt.Errorf("failed to lock test database: %v", err)
	}

	if err := database.Migrate(&cfg.Database); err != nil {
		lockConn.Release()
		testDB.Close()
		return nil, nil, fmt.Errorf("failed to migrate test database: %v", err)
	}

	log.Println("Test database connected successfully")

	cleanup := func() {
		_, _ = lockConn.Exec(ctx, "SELECT pg_advisory_unlock($1)", testDatabaseLockKey)
		lockConn.Release()
		testDB.Close()
		log.Println("Test database closed")
	}

	return testDB, cleanup, nil
}

// SetupRedisOnly 僅初始化 Redis，用於只依賴 Redis 的測試（如 cache、queue、notify）
func SetupRedisOnly() (*redis.Client, func(), error) {
	cfg := config.LoadTestConfig()
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize redis: %v", err)
	}
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to ping redis: %v", err)
	}
	cleanup := func() { rdb.Close() }
	return rdb, cleanup, nil
}

// TruncateAll 清空所有測試資料，保留 schema
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, "TRUNCATE tickets, happenings, facts RESTART IDENTITY CASCADE")
	return err
}

// CreateFact 建立測試用 fact，回傳 id
func CreateFact(ctx context.Context, pool *pgxpool.Pool, name string) (int, error) {
	var id int
	err := pool.QueryRow(ctx, `INSERT INTO facts (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	return id, err
}

// CreateTicket 模擬售票流程寫入票券
func CreateTicket(ctx context.Context, pool *pgxpool.Pool, happeningID, seats int) (int, error) {
	var id int
	err := pool.QueryRow(ctx,
		`INSERT INTO tickets (happening_id, seats) VALUES ($1, $2) RETURNING id`,
		happeningID, seats,
	).Scan(&id)
	return id, err
}
