package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect hides the differences between the supported SQL servers.  Queries
// in the repositories are written with '?' placeholders and passed through
// Rebind before execution.
type Dialect interface {
	Name() string

	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// NumberedPlaceholders reports whether a placeholder can be referenced
	// more than once ($1 in PostgreSQL) instead of binding the value again.
	NumberedPlaceholders() bool
	// Rebind rewrites '?' markers into the dialect's placeholder syntax.
	Rebind(query string) string

	// Fold renders expr lower-cased with Unicode case mapping, for
	// case-insensitive comparisons.
	Fold(expr string) string
	// Contains renders a substring predicate for column against the bound
	// placeholder.  fold selects case-insensitive matching.
	Contains(column, placeholder string, fold bool) string
	// ContainsArg turns raw user input into the argument Contains expects.
	ContainsArg(value string) string

	// InsertID runs an INSERT (written with '?' markers) and returns the
	// generated id column.
	InsertID(ctx context.Context, q Querier, query string, args ...any) (uint64, error)
	// IsUniqueViolation reports whether err came from a UNIQUE constraint.
	IsUniqueViolation(err error) bool
	// IsForeignKeyViolation reports whether err came from a FOREIGN KEY constraint.
	IsForeignKeyViolation(err error) bool

	// Schema returns the CREATE statements for users, properties and images.
	Schema() []string
}

// likeEscaper makes %, _ and \ match literally inside a LIKE pattern.  Both
// MySQL and PostgreSQL use backslash as the default LIKE escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likeContains(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

// insertByLastID covers drivers that report the generated key via LastInsertId.
func insertByLastID(ctx context.Context, q Querier, query string, args ...any) (uint64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return uint64(id), nil
}

// ----- MySQL -----

// MySQL renders SQL for MySQL 8 with the utf8mb4 character set.
type MySQL struct{}

func (MySQL) Name() string               { return "mysql" }
func (MySQL) Placeholder(int) string     { return "?" }
func (MySQL) NumberedPlaceholders() bool { return false }
func (MySQL) Rebind(query string) string { return query }

func (MySQL) Fold(expr string) string { return "LOWER(" + expr + ")" }

// Contains compares with a binary collation when case matters; the default
// collation of the schema is case-insensitive.
func (m MySQL) Contains(column, ph string, fold bool) string {
	if fold {
		return m.Fold(column) + " LIKE " + m.Fold(ph)
	}
	return fmt.Sprintf("%s COLLATE utf8mb4_bin LIKE %s", column, ph)
}

func (MySQL) ContainsArg(value string) string { return likeContains(value) }

func (MySQL) InsertID(ctx context.Context, q Querier, query string, args ...any) (uint64, error) {
	return insertByLastID(ctx, q, query, args...)
}

func (MySQL) IsUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func (MySQL) IsForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && (me.Number == 1452 || me.Number == 1451)
}

func (MySQL) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			UNIQUE KEY uq_users_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_ai_ci`,
		`CREATE TABLE IF NOT EXISTS properties (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			owner_id BIGINT UNSIGNED NOT NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			thumbnail_photo_url VARCHAR(1024) NOT NULL,
			cover_photo_url VARCHAR(1024) NOT NULL,
			cost_per_month INT NOT NULL,
			street VARCHAR(255) NOT NULL,
			city VARCHAR(255) NOT NULL,
			province VARCHAR(255) NOT NULL,
			post_code VARCHAR(32) NOT NULL,
			country VARCHAR(255) NOT NULL,
			area INT NOT NULL,
			number_of_bathrooms INT NOT NULL,
			number_of_bedrooms INT NOT NULL,
			available_from DATE NULL,
			CONSTRAINT fk_properties_owner FOREIGN KEY (owner_id) REFERENCES users(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_ai_ci`,
		`CREATE TABLE IF NOT EXISTS images (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			property_id BIGINT UNSIGNED NOT NULL,
			photo_url VARCHAR(1024) NOT NULL,
			CONSTRAINT fk_images_property FOREIGN KEY (property_id) REFERENCES properties(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_ai_ci`,
	}
}

// ----- PostgreSQL -----

// Postgres renders SQL for PostgreSQL with $n placeholders.
type Postgres struct{}

func (Postgres) Name() string               { return "postgres" }
func (Postgres) Placeholder(n int) string   { return "$" + strconv.Itoa(n) }
func (Postgres) NumberedPlaceholders() bool { return true }

func (Postgres) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (Postgres) Fold(expr string) string { return "LOWER(" + expr + ")" }

func (Postgres) Contains(column, ph string, fold bool) string {
	if fold {
		return column + " ILIKE " + ph
	}
	return column + " LIKE " + ph
}

func (Postgres) ContainsArg(value string) string { return likeContains(value) }

func (p Postgres) InsertID(ctx context.Context, q Querier, query string, args ...any) (uint64, error) {
	var id uint64
	if err := q.QueryRowContext(ctx, p.Rebind(query)+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (Postgres) IsUniqueViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23505"
}

func (Postgres) IsForeignKeyViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23503"
}

func (Postgres) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL,
			password TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email_lower ON users (LOWER(email))`,
		`CREATE TABLE IF NOT EXISTS properties (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			thumbnail_photo_url TEXT NOT NULL,
			cover_photo_url TEXT NOT NULL,
			cost_per_month INTEGER NOT NULL,
			street TEXT NOT NULL,
			city TEXT NOT NULL,
			province TEXT NOT NULL,
			post_code TEXT NOT NULL,
			country TEXT NOT NULL,
			area INTEGER NOT NULL,
			number_of_bathrooms INTEGER NOT NULL,
			number_of_bedrooms INTEGER NOT NULL,
			available_from DATE
		)`,
		`CREATE TABLE IF NOT EXISTS images (
			id BIGSERIAL PRIMARY KEY,
			property_id BIGINT NOT NULL REFERENCES properties(id),
			photo_url TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_images_property_id ON images(property_id)`,
	}
}

// ----- SQLite -----

// SQLite renders SQL for SQLite.  Its LIKE ignores ASCII case, so substring
// matching uses instr() which compares bytes.  The built-in lower() and
// NOCASE only fold ASCII, so case-insensitive comparisons go through the
// fold() function registered in sqlite_func.go.
type SQLite struct{}

func (SQLite) Name() string               { return "sqlite" }
func (SQLite) Placeholder(int) string     { return "?" }
func (SQLite) NumberedPlaceholders() bool { return false }
func (SQLite) Rebind(query string) string { return query }

func (SQLite) Fold(expr string) string { return foldFunc + "(" + expr + ")" }

func (s SQLite) Contains(column, ph string, fold bool) string {
	if fold {
		return fmt.Sprintf("instr(%s, %s) > 0", s.Fold(column), s.Fold(ph))
	}
	return fmt.Sprintf("instr(%s, %s) > 0", column, ph)
}

// ContainsArg passes the value through; instr has no wildcards to escape.
func (SQLite) ContainsArg(value string) string { return value }

func (SQLite) InsertID(ctx context.Context, q Querier, query string, args ...any) (uint64, error) {
	return insertByLastID(ctx, q, query, args...)
}

func (SQLite) IsUniqueViolation(err error) bool {
	return sqliteConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE")
}

func (SQLite) IsForeignKeyViolation(err error) bool {
	return sqliteConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY")
}

// sqliteConstraint matches the extended result code, or the primary
// SQLITE_CONSTRAINT code plus message when extended codes are off.
func sqliteConstraint(err error, extended int, kind string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == extended {
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), kind)
}

func (SQLite) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL,
			password TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email_fold ON users (` + foldFunc + `(email))`,
		`CREATE TABLE IF NOT EXISTS properties (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			thumbnail_photo_url TEXT NOT NULL,
			cover_photo_url TEXT NOT NULL,
			cost_per_month INTEGER NOT NULL,
			street TEXT NOT NULL,
			city TEXT NOT NULL,
			province TEXT NOT NULL,
			post_code TEXT NOT NULL,
			country TEXT NOT NULL,
			area INTEGER NOT NULL,
			number_of_bathrooms INTEGER NOT NULL,
			number_of_bedrooms INTEGER NOT NULL,
			available_from DATE
		)`,
		`CREATE TABLE IF NOT EXISTS images (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			property_id INTEGER NOT NULL REFERENCES properties(id),
			photo_url TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_images_property_id ON images(property_id)`,
	}
}
