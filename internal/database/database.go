// Package database provides the session factory handed to request handlers.
// It owns a connection pool and nothing else: no queries, no migrations.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

var (
	// ErrAcquireTimeout is returned when no pooled connection became free
	// within the acquire timeout.
	ErrAcquireTimeout = errors.New("database: session acquire timed out")
	// ErrUnsupportedURL is returned for connection strings of unknown schemes.
	ErrUnsupportedURL = errors.New("database: unsupported connection URL")
)

// Config configures the connection pool.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AcquireTimeout  time.Duration
}

// Factory hands out sessions backed by pooled connections.
type Factory struct {
	db             *sql.DB
	driver         string
	acquireTimeout time.Duration
	logger         *slog.Logger
}

// Open creates the pool for cfg.URL. The scheme selects the driver:
// postgres:// and postgresql:// use pgx, mysql://, mariadb:// and
// mariadb+<dialect>:// use the MySQL driver, sqlite:// and file: use SQLite.
// No connection is made until the first session is opened.
func Open(cfg Config, logger *slog.Logger) (*Factory, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		db     *sql.DB
		driver string
	)

	switch {
	case strings.HasPrefix(cfg.URL, "postgres://"), strings.HasPrefix(cfg.URL, "postgresql://"):
		pgCfg, err := pgx.ParseConfig(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse postgres URL: %w", err)
		}
		db = stdlib.OpenDB(*pgCfg)
		driver = "pgx"

	case strings.HasPrefix(cfg.URL, "mysql://"), strings.HasPrefix(cfg.URL, "mariadb://"),
		strings.HasPrefix(cfg.URL, "mariadb+"):
		myCfg, err := mysqlConfig(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse mysql URL %q: %w", redact(cfg.URL), err)
		}
		conn, err := mysql.NewConnector(myCfg)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
		db = sql.OpenDB(conn)
		driver = "mysql"

	case strings.HasPrefix(cfg.URL, "sqlite://"), strings.HasPrefix(cfg.URL, "file:"):
		dsn := strings.TrimPrefix(cfg.URL, "sqlite://")
		var err error
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		driver = "sqlite"

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, redact(cfg.URL))
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	acquire := cfg.AcquireTimeout
	if acquire <= 0 {
		acquire = 5 * time.Second
	}

	logger.Debug("database pool created", "driver", driver, "url", redact(cfg.URL))

	return &Factory{
		db:             db,
		driver:         driver,
		acquireTimeout: acquire,
		logger:         logger,
	}, nil
}

// Driver returns the name of the selected driver.
func (f *Factory) Driver() string { return f.driver }

// DB returns the underlying pool.
func (f *Factory) DB() *sql.DB { return f.db }

// OpenSession acquires a dedicated connection from the pool. It fails with
// ErrAcquireTimeout when none becomes free in time. The caller must Close
// the session.
func (f *Factory) OpenSession(ctx context.Context) (*Session, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, f.acquireTimeout)
	defer cancel()

	conn, err := f.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", ErrAcquireTimeout, f.acquireTimeout)
		}
		return nil, fmt.Errorf("acquire session: %w", err)
	}

	return &Session{conn: conn, opened: time.Now(), logger: f.logger}, nil
}

// Close closes the pool.
func (f *Factory) Close() error {
	return f.db.Close()
}

// Session is a unit of work bound to one pooled connection.
type Session struct {
	conn   *sql.Conn
	opened time.Time
	logger *slog.Logger
}

// Conn returns the session's connection.
func (s *Session) Conn() *sql.Conn { return s.conn }

// Ping checks that the connection is alive.
func (s *Session) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close releases the connection back to the pool.
func (s *Session) Close() error {
	s.logger.Debug("database session closed", "held", time.Since(s.opened))
	return s.conn.Close()
}

// mysqlConfig converts a mysql:// or mariadb:// URL into driver settings.
// The port defaults to 3306 and query parameters are read as driver options.
func mysqlConfig(raw string) (*mysql.Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.New("malformed URL")
	}

	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	var userinfo string
	if u.User != nil {
		userinfo = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			userinfo += ":" + pass
		}
		userinfo += "@"
	}

	dsn := userinfo + "tcp(" + addr + ")" + u.Path
	if u.Path == "" {
		dsn += "/"
	}
	if u.RawQuery != "" {
		dsn += "?" + u.RawQuery
	}
	return mysql.ParseDSN(dsn)
}

// redact hides the password of a connection URL.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	user, _, hasPass := strings.Cut(userinfo, ":")
	if !hasPass {
		return url
	}
	return scheme + "://" + user + ":xxxxx@" + host
}
