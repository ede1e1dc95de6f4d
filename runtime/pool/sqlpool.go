package pool

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Config holds database/sql pool limits.
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns default pool configuration
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// SQLPool adapts *sql.DB to Pool. Connections are dedicated *sql.Conn
// handles, so a lease keeps the same session until released.
type SQLPool struct {
	db   *sql.DB
	info Info
}

// Open opens a database/sql pool for driver ("postgres", "mysql" or
// "sqlite3") and applies cfg.
func Open(driverName, dsn string, cfg Config) (*SQLPool, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	info, err := ParseInfo(driverName, dsn)
	if err != nil {
		// Diagnostics only; a DSN the parser does not understand still opens.
		info = Info{}
	}
	info.MaxSize = cfg.MaxOpenConns

	return NewSQLPool(db, info), nil
}

// NewSQLPool wraps an existing *sql.DB.
func NewSQLPool(db *sql.DB, info Info) *SQLPool {
	return &SQLPool{db: db, info: info}
}

// DB returns the underlying *sql.DB.
func (p *SQLPool) DB() *sql.DB {
	return p.db
}

// Connect implements Pool.
func (p *SQLPool) Connect(ctx context.Context) (Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Release implements Pool.
func (p *SQLPool) Release(conn Conn) error {
	c, ok := conn.(*sql.Conn)
	if !ok {
		return fmt.Errorf("pool: cannot release %T", conn)
	}
	return c.Close()
}

// Stats implements Pool.
func (p *SQLPool) Stats() Stats {
	s := p.db.Stats()
	return Stats{
		Total:   s.OpenConnections,
		Idle:    s.Idle,
		InUse:   s.InUse,
		Waiting: s.WaitCount,
	}
}

// Info implements Pool.
func (p *SQLPool) Info() Info {
	return p.info
}

// Close closes the underlying database.
func (p *SQLPool) Close() error {
	return p.db.Close()
}

// ParseInfo extracts diagnostic pool information from a DSN. Passwords are
// dropped.
func ParseInfo(driverName, dsn string) (Info, error) {
	switch driverName {
	case "postgres", "postgresql", "pq":
		return parsePostgresInfo(dsn)
	case "mysql":
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return Info{}, err
		}
		info := Info{User: cfg.User, Database: cfg.DBName}
		info.Host, info.Port = splitHostPort(cfg.Addr, 3306)
		return info, nil
	case "sqlite3", "sqlite":
		path := strings.TrimPrefix(dsn, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		return Info{Host: "local", Database: path}, nil
	default:
		return Info{}, fmt.Errorf("pool: unsupported driver %q", driverName)
	}
}

func parsePostgresInfo(dsn string) (Info, error) {
	conninfo := dsn
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		var err error
		if conninfo, err = pq.ParseURL(dsn); err != nil {
			return Info{}, err
		}
	}

	info := Info{Host: "localhost", Port: 5432}
	for _, field := range strings.Fields(conninfo) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, "'")
		switch key {
		case "host":
			info.Host = value
		case "port":
			if port, err := strconv.Atoi(value); err == nil {
				info.Port = port
			}
		case "user":
			info.User = value
		case "dbname":
			info.Database = value
		}
	}
	return info, nil
}

func splitHostPort(addr string, defaultPort int) (string, int) {
	if addr == "" {
		return "localhost", defaultPort
	}
	u := url.URL{Host: addr}
	host := u.Hostname()
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		port = defaultPort
	}
	return host, port
}

var _ Pool = (*SQLPool)(nil)
