//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"phraseguard/internal/platform/config"
	"phraseguard/internal/platform/postgres"
)

// PostgresContainer wraps a migrated pgvector-enabled Postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

func startPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := tcpostgres.Run(ctx, "pgvector/pgvector:pg17",
		tcpostgres.WithDatabase("phraseguard"),
		tcpostgres.WithUsername("phraseguard"),
		tcpostgres.WithPassword("phraseguard"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}
	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}
	db, err := postgres.Open(ctx, config.DatabaseConfig{
		URL:             url,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}
	return &PostgresContainer{Container: container, URL: url, DB: db}, nil
}

// TruncateTables empties every application table.
func (p *PostgresContainer) TruncateTables(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `TRUNCATE violations, checks, dictionary_items`)
	return err
}
