package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/smoothmove/internal/database"
	"github.com/iliyamo/smoothmove/internal/model"
)

// UserRepo encapsulates all queries on the users table.
type UserRepo struct{ db *database.DB }

// NewUserRepo constructs a UserRepo over the shared pool.
func NewUserRepo(db *database.DB) *UserRepo { return &UserRepo{db: db} }

// AddUser inserts u and returns the stored row.  ErrEmailExists is returned
// when the schema's unique constraint on email rejects the insert.
func (r *UserRepo) AddUser(ctx context.Context, u *model.User) (*model.User, error) {
	email := strings.TrimSpace(u.Email)
	id, err := r.db.Dialect.InsertID(ctx, r.db,
		"INSERT INTO users (first_name, last_name, email, password) VALUES (?, ?, ?, ?)",
		u.FirstName, u.LastName, email, u.PasswordHash)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &model.User{
		ID:           id,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        email,
		PasswordHash: u.PasswordHash,
	}, nil
}

// GetUserByEmail looks a user up ignoring case.  It returns nil and no error
// when no account matches.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	d := r.db.Dialect
	u, err := r.getOne(ctx, d.Fold("email")+" = "+d.Fold("?"), strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetUserByID fetches a user by id, nil when absent.
func (r *UserRepo) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := r.getOne(ctx, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *UserRepo) getOne(ctx context.Context, cond string, arg any) (*model.User, error) {
	q := r.db.Dialect.Rebind("SELECT id, first_name, last_name, email, password FROM users WHERE " + cond + " LIMIT 1")
	var u model.User
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
