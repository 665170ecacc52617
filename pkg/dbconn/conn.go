package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/block/qualitychecker/pkg/dialect"
	"github.com/block/qualitychecker/pkg/utils"
	_ "github.com/vertica/vertica-sql-go"
)

const pingTimeout = 10 * time.Second

// New opens a connection pool to the warehouse of dialect d and checks
// that it is reachable.
func New(ctx context.Context, d dialect.Dialect, params dialect.ConnParams, config *DBConfig) (*sql.DB, error) {
	if config == nil {
		config = NewDBConfig()
	}
	dsn, err := d.DSN(params)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		utils.CloseAndLog(db)
		return nil, fmt.Errorf("could not connect to %s at %s: %w", d, params.Host, err)
	}
	db.SetMaxOpenConns(config.MaxOpenConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	return db, nil
}
