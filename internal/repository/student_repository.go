package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
)

// StudentRepository manages persistence for student accounts.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, name, email, password_hash, roll_no, school_name, school_id, class, olympiad_exam, fee_status, user_type, status, created_at, updated_at`

// ExistsByEmail reports whether a student already uses the email.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM students WHERE email = $1 LIMIT 1", email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check student email: %w", err)
	}
	return true, nil
}

// Create inserts a new student account.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (` + studentColumns + `)
        VALUES (:id, :name, :email, :password_hash, :roll_no, :school_name, :school_id, :class, :olympiad_exam, :fee_status, :user_type, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return classifyPostgres(err, "create student")
	}
	return nil
}

// List returns students ordered by creation time, optionally narrowed by school.
func (r *StudentRepository) List(ctx context.Context, filter models.AccountFilter) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students"
	var args []interface{}
	if school := strings.TrimSpace(filter.SchoolName); school != "" {
		query += " WHERE LOWER(school_name) = $1"
		args = append(args, strings.ToLower(school))
	}
	query += " ORDER BY created_at ASC"

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FilterOptions returns the distinct school names and user types on record.
func (r *StudentRepository) FilterOptions(ctx context.Context) (*models.StudentFilterOptions, error) {
	opts := &models.StudentFilterOptions{Schools: []string{}, UserTypes: []string{}}
	if err := r.db.SelectContext(ctx, &opts.Schools, "SELECT DISTINCT school_name FROM students ORDER BY school_name"); err != nil {
		return nil, fmt.Errorf("list student schools: %w", err)
	}
	if err := r.db.SelectContext(ctx, &opts.UserTypes, "SELECT DISTINCT user_type FROM students ORDER BY user_type"); err != nil {
		return nil, fmt.Errorf("list student user types: %w", err)
	}
	return opts, nil
}
