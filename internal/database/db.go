package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite" // pure Go, no cgo
)

// DB is the process-wide connection pool together with the SQL dialect of the
// server behind it.  It is created once at startup, injected into every
// repository and closed on shutdown.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Options selects the driver and carries its connection parameters.  Path is
// only used by the sqlite driver; the others use Host/Port/Name/User/Pass.
type Options struct {
	Driver  string
	User    string
	Pass    string
	Host    string
	Port    string
	Name    string
	Path    string
	SSLMode string
}

// Open connects using o.Driver and verifies the connection.
func Open(ctx context.Context, o Options) (*DB, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)
	switch o.Driver {
	case "", "mysql":
		db, err = sql.Open("mysql", mysqlDSN(o))
		dialect = MySQL{}
	case "postgres":
		db, err = sql.Open("postgres", postgresDSN(o))
		dialect = Postgres{}
	case "sqlite":
		return OpenSQLite(ctx, o.Path)
	default:
		return nil, fmt.Errorf("unsupported driver %q", o.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name(), err)
	}
	if err := ping(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name(), err)
	}
	return &DB{DB: db, Dialect: dialect}, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file with foreign
// keys enforced on every connection.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	if err := ping(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &DB{DB: db, Dialect: SQLite{}}, nil
}

// EnsureSchema creates the users, properties and images tables when they do
// not exist yet.  Existing tables are left untouched.
func EnsureSchema(ctx context.Context, db *DB) error {
	for _, stmt := range db.Dialect.Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

func mysqlDSN(o Options) string {
	c := mysql.NewConfig()
	c.User = o.User
	c.Passwd = o.Pass
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(o.Host, o.Port)
	c.DBName = o.Name
	// DATE columns scan into time.Time, always in UTC
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

func postgresDSN(o Options) string {
	ssl := o.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(o.User, o.Pass),
		Host:     net.JoinHostPort(o.Host, o.Port),
		Path:     "/" + o.Name,
		RawQuery: url.Values{"sslmode": {ssl}}.Encode(),
	}
	return u.String()
}
