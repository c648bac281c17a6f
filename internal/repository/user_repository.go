package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nexlearn/campus-api/internal/models"
)

// UserRepository manages persistence for account records. Accounts are
// created together with their profile inside the profile repositories; this
// repository covers account-level lookups.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// ExistsByEmail checks whether any account already uses the given email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1", email)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check email: %w", err)
	}
	return true, nil
}

// FindByID fetches an account by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &user, nil
}

// insertUser writes an account row inside the provided transaction. Shared
// by the profile repositories so a failed profile insert rolls the account
// back with it.
func insertUser(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	const query = `INSERT INTO users (id, email, password_hash, first_name, last_name, role, approved, active, created_by, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :first_name, :last_name, :role, :approved, :active, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
