package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/clickhouse"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

type ClickhouseOptions struct {
	Addr     string
	Database string
	Username string
	Password string
}

func ConnectClickhouse(opts ClickhouseOptions, logger *log.Logger) (driver.Conn, error) {
	ctx := context.Background()
	var conn driver.Conn
	var err error

	for i := 1; i <= 10; i++ {
		conn, err = clickhouse.Open(&clickhouse.Options{
			Addr: []string{opts.Addr},
			Auth: clickhouse.Auth{
				Database: opts.Database,
				Username: opts.Username,
				Password: opts.Password,
			},
			ClientInfo: clickhouse.ClientInfo{
				Products: []struct {
					Name    string
					Version string
				}{
					{Name: "vidtube-api-server", Version: "1.0"},
				},
			},
			DialTimeout: 5 * time.Second,
		})

		if err == nil {
			err = conn.Ping(ctx)
			if err == nil {
				logger.Println("Connected to ClickHouse!")
				return conn, nil
			}
		}

		logger.Printf("Attempt %d: ClickHouse not ready: %v", i, err)
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("could not connect to ClickHouse after multiple attempts: %w", err)
}

// ClickhouseMigrationURL builds the golang-migrate database URL for opts.
func ClickhouseMigrationURL(opts ClickhouseOptions) string {
	u := url.URL{
		Scheme:   "clickhouse",
		Host:     opts.Addr,
		Path:     "/" + opts.Database,
		RawQuery: "x-multi-statement=true",
	}
	if opts.Username != "" {
		u.User = url.UserPassword(opts.Username, opts.Password)
	}
	return u.String()
}

func MigrateClickhouse(migrationsFS fs.FS, dir string, opts ClickhouseOptions) error {
	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("migration source error: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, ClickhouseMigrationURL(opts))
	if err != nil {
		return fmt.Errorf("migration init error: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}
