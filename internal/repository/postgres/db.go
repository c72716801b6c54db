package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/ignite/person-api/internal/config"
)

// Open builds the single connection pool shared by every component. The
// DSN is extended with a connect timeout and server-side statement limits
// before the pool is opened and pinged.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is not configured")
	}

	db, err := sql.Open("postgres", tuneDSN(cfg.URL, cfg.StatementTimeoutMS))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// tuneDSN appends connect_timeout and statement/idle-in-transaction timeouts
// unless the DSN already sets them. Both URL and keyword/value DSNs are
// supported.
func tuneDSN(dsn string, statementTimeoutMS int) string {
	opts := fmt.Sprintf("-c statement_timeout=%d -c idle_in_transaction_session_timeout=%d",
		statementTimeoutMS, statementTimeoutMS)

	if !strings.Contains(dsn, "://") {
		if !strings.Contains(dsn, "connect_timeout") {
			dsn += " connect_timeout=5"
		}
		if statementTimeoutMS > 0 && !strings.Contains(dsn, "options=") {
			dsn += " options='" + opts + "'"
		}
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(dsn, "connect_timeout") {
		dsn += sep + "connect_timeout=5"
		sep = "&"
	}
	if statementTimeoutMS > 0 && !strings.Contains(dsn, "options=") {
		dsn += sep + "options=" + strings.ReplaceAll(strings.ReplaceAll(opts, " ", "%20"), "=", "%3D")
	}
	return dsn
}

// RedactDSN hides the credentials of a URL-style DSN for logging.
func RedactDSN(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if q := strings.Index(rest, "?"); q >= 0 {
		rest = rest[:q]
	}
	return "...@" + rest
}
