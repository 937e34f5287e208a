package service

import (
	"context"
	"fmt"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
)

// StudentStore is the persistence contract for student accounts.
type StudentStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	List(ctx context.Context, filter models.AccountFilter) ([]models.Student, error)
	FilterOptions(ctx context.Context) (*models.StudentFilterOptions, error)
}

// SalesUserStore is the persistence contract for sales agent accounts.
type SalesUserStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.SalesUser) error
	List(ctx context.Context, filter models.AccountFilter) ([]models.SalesUser, error)
}

// roleBinding wires one user type to its store, hashing cost and ledger layout.
type roleBinding struct {
	exists        func(ctx context.Context, email string) (bool, error)
	insert        func(ctx context.Context, reg models.Registration, passwordHash string) (string, error)
	hasher        *CredentialHasher
	ledgerColumns []string
	ledgerPrefix  string
}

type roleBindings map[models.UserType]roleBinding

func newRoleBindings(students StudentStore, sales SalesUserStore, studentHasher, salesHasher *CredentialHasher) roleBindings {
	return roleBindings{
		models.UserTypeStudent: {
			exists: students.ExistsByEmail,
			insert: func(ctx context.Context, reg models.Registration, passwordHash string) (string, error) {
				r, ok := reg.(*models.StudentRegistration)
				if !ok {
					return "", fmt.Errorf("student store cannot persist %s registration", reg.UserType())
				}
				student := &models.Student{
					Name:         r.Name,
					Email:        r.Email,
					PasswordHash: passwordHash,
					RollNo:       r.RollNo,
					SchoolName:   r.SchoolName,
					SchoolID:     r.SchoolID,
					Class:        r.Class,
					OlympiadExam: r.OlympiadExam,
					FeeStatus:    r.FeeStatus,
					UserType:     models.UserTypeStudent,
					Status:       models.AccountStatusActive,
				}
				if err := students.Create(ctx, student); err != nil {
					return "", err
				}
				return student.ID, nil
			},
			hasher:        studentHasher,
			ledgerColumns: studentLedgerColumns,
			ledgerPrefix:  "student_credentials",
		},
		models.UserTypeSales: {
			exists: sales.ExistsByEmail,
			insert: func(ctx context.Context, reg models.Registration, passwordHash string) (string, error) {
				r, ok := reg.(*models.SalesRegistration)
				if !ok {
					return "", fmt.Errorf("sales store cannot persist %s registration", reg.UserType())
				}
				user := &models.SalesUser{
					Name:         r.Name,
					Email:        r.Email,
					PhoneNo:      r.PhoneNo,
					PasswordHash: passwordHash,
					UserType:     models.UserTypeSales,
					Status:       models.AccountStatusActive,
				}
				if err := sales.Create(ctx, user); err != nil {
					return "", err
				}
				return user.ID, nil
			},
			hasher:        salesHasher,
			ledgerColumns: salesLedgerColumns,
			ledgerPrefix:  "sales_credentials",
		},
	}
}
