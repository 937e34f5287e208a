package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"

	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
)

const (
	pqUniqueViolation      = pq.ErrorCode("23505")
	pqIntegrityClass       = pq.ErrorClass("23")
	pqDataExceptionClass   = pq.ErrorClass("22")
	mongoDocumentFailedVal = 121
)

// classifyPostgres maps driver errors onto the store-level sentinels so callers
// can separate uniqueness violations from other rejected rows. Integrity and
// data exceptions (bad encoding, overlong values) reject only the offending row.
func classifyPostgres(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == pqUniqueViolation {
			return appErrors.Wrap(err, appErrors.ErrDuplicateKey.Code, appErrors.ErrDuplicateKey.Status, "email already registered")
		}
		switch pqErr.Code.Class() {
		case pqIntegrityClass, pqDataExceptionClass:
			return appErrors.Wrap(err, appErrors.ErrConstraint.Code, appErrors.ErrConstraint.Status, pqErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// classifyMongo is the document-store counterpart of classifyPostgres.
func classifyMongo(err error, op string) error {
	if mongo.IsDuplicateKeyError(err) {
		return appErrors.Wrap(err, appErrors.ErrDuplicateKey.Code, appErrors.ErrDuplicateKey.Status, "email already registered")
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == mongoDocumentFailedVal {
				return appErrors.Wrap(err, appErrors.ErrConstraint.Code, appErrors.ErrConstraint.Status, "document failed validation")
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
