package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/iliyamo/smoothmove/internal/database"
	"github.com/iliyamo/smoothmove/internal/model"
)

// newTestDB opens a fresh SQLite database with the schema applied.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func mustUser(t *testing.T, users *UserRepo, email string) *model.User {
	t.Helper()
	u, err := users.AddUser(context.Background(), &model.User{
		FirstName: "Test", LastName: "Owner", Email: email, PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("AddUser(%s) failed: %v", email, err)
	}
	return u
}

func mustProperty(t *testing.T, props *PropertyRepo, p *model.Property) *model.Property {
	t.Helper()
	out, err := props.AddProperty(context.Background(), p)
	if err != nil {
		t.Fatalf("AddProperty(%q) failed: %v", p.Title, err)
	}
	return out
}
