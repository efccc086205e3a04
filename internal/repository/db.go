package repository

import (
	"fmt"
	"time"

	"auctions/utils"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PoolConfig sizes the Postgres connection pool
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenPostgres connects to databaseURL, applies the pool settings and pings the server
func OpenPostgres(databaseURL string, pool PoolConfig) (*sqlx.DB, error) {
	start := time.Now()

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("repository: open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository: ping postgres: %w", err)
	}

	utils.Info("PostgreSQL connection established", map[string]any{
		"max_open_conns": pool.MaxOpenConns,
		"duration_ms":    time.Since(start).Milliseconds(),
	})
	return db, nil
}
