package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
)

// SalesUserRepository manages persistence for sales agent accounts.
type SalesUserRepository struct {
	db *sqlx.DB
}

// NewSalesUserRepository constructs a SalesUserRepository.
func NewSalesUserRepository(db *sqlx.DB) *SalesUserRepository {
	return &SalesUserRepository{db: db}
}

const salesUserColumns = `id, name, email, phone_no, password_hash, user_type, status, created_at, updated_at`

// ExistsByEmail reports whether a sales agent already uses the email.
func (r *SalesUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM sales_users WHERE email = $1 LIMIT 1", email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check sales email: %w", err)
	}
	return true, nil
}

// Create inserts a new sales agent.
func (r *SalesUserRepository) Create(ctx context.Context, user *models.SalesUser) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO sales_users (` + salesUserColumns + `)
        VALUES (:id, :name, :email, :phone_no, :password_hash, :user_type, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return classifyPostgres(err, "create sales user")
	}
	return nil
}

// List returns every sales agent ordered by creation time. Sales agents carry
// no school, so the filter is ignored.
func (r *SalesUserRepository) List(ctx context.Context, _ models.AccountFilter) ([]models.SalesUser, error) {
	var users []models.SalesUser
	if err := r.db.SelectContext(ctx, &users, "SELECT "+salesUserColumns+" FROM sales_users ORDER BY created_at ASC"); err != nil {
		return nil, fmt.Errorf("list sales users: %w", err)
	}
	return users, nil
}
