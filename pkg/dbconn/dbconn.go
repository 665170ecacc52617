// Package dbconn contains the database execution port used by the checks.
package dbconn

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/block/qualitychecker/pkg/dialect"
	"github.com/lib/pq"
	"github.com/pingcap/errors"
)

// Postgres/Greenplum SQLSTATE classes that are safe to retry.
const (
	classConnectionException = "08"
	classTransactionRollback = "40"
	classInsufficientRes     = "53"
)

type DBConfig struct {
	MaxRetries         int
	MaxOpenConnections int
	ConnMaxLifetime    time.Duration
	QueryTimeout       time.Duration // zero means no per-query deadline
}

func NewDBConfig() *DBConfig {
	return &DBConfig{
		MaxRetries:         3,
		MaxOpenConnections: 8, // overwritten by the threads count + 2 for headroom.
		ConnMaxLifetime:    time.Minute * 3,
		QueryTimeout:       0,
	}
}

// Querier is the execution port the metadata resolver and the checks
// depend on. Query returns every row of a single SELECT.
type Querier interface {
	Dialect() dialect.Dialect
	Query(ctx context.Context, query string) ([][]any, error)
}

// Executor implements Querier over a *sql.DB.
type Executor struct {
	db      *sql.DB
	dialect dialect.Dialect
	config  *DBConfig
	logger  *slog.Logger
}

var _ Querier = (*Executor)(nil)

func NewExecutor(db *sql.DB, d dialect.Dialect, config *DBConfig, logger *slog.Logger) *Executor {
	if config == nil {
		config = NewDBConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		db:      db,
		dialect: d,
		config:  config,
		logger:  logger,
	}
}

func (e *Executor) Dialect() dialect.Dialect {
	return e.dialect
}

// Query runs query and returns its rows, retrying transient errors up to
// MaxRetries times. []byte values are returned as string.
func (e *Executor) Query(ctx context.Context, query string) ([][]any, error) {
	var (
		rows [][]any
		err  error
	)
	attempts := max(e.config.MaxRetries, 1)
	for i := range attempts {
		rows, err = e.query(ctx, query)
		if err == nil {
			return rows, nil
		}
		if ctx.Err() != nil || !canRetryError(err) || i == attempts-1 {
			break
		}
		e.logger.Warn("retrying query after transient error",
			"attempt", i+1,
			"error", err,
		)
		backoff(i)
	}
	return nil, errors.Annotatef(err, "query failed: %s", abbreviate(query))
}

func (e *Executor) query(ctx context.Context, query string) ([][]any, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	res, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	cols, err := res.Columns()
	if err != nil {
		return nil, err
	}
	var out [][]any
	for res.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := res.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	return out, res.Err()
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.config.QueryTimeout)
}

// canRetryError decides if err is a transient failure. Connection loss,
// serialization failures and deadlocks are retried; syntax or permission
// errors are permanent.
func canRetryError(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case classConnectionException, classTransactionRollback, classInsufficientRes:
			return true
		default:
			return false
		}
	}
	return stderrors.Is(err, driver.ErrBadConn) || stderrors.Is(err, io.ErrUnexpectedEOF)
}

func backoff(i int) {
	randFactor := i * rand.Intn(10) * int(time.Millisecond)
	time.Sleep(time.Duration(randFactor))
}

func abbreviate(query string) string {
	const limit = 120
	if len(query) <= limit {
		return query
	}
	return query[:limit] + "..."
}
