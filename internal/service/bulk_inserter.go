package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
)

const duplicateEmailMessage = "user with this email already exists"

// BulkInserter persists normalized registrations one at a time, in file order.
type BulkInserter struct {
	bindings  roleBindings
	resolver  *DuplicateResolver
	passwords *PasswordGenerator
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

func newBulkInserter(bindings roleBindings, passwords *PasswordGenerator, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *BulkInserter {
	return &BulkInserter{
		bindings:  bindings,
		resolver:  newDuplicateResolver(bindings),
		passwords: passwords,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
	}
}

// Insert runs every record through validate, duplicate check, hash and insert.
// Row-level rejections are recorded in the outcome. Infrastructure failures
// and context cancellation stop the batch and are returned alongside the rows
// processed so far.
func (b *BulkInserter) Insert(ctx context.Context, records []models.Registration, policy models.DuplicatePolicy) (*models.BatchOutcome, error) {
	if policy == "" {
		policy = models.DuplicatePolicyChecked
	}
	outcome := &models.BatchOutcome{Policy: policy, Results: make([]models.RowResult, 0, len(records))}

	for _, reg := range records {
		if err := ctx.Err(); err != nil {
			return outcome, fmt.Errorf("batch interrupted: %w", err)
		}
		result, err := b.insertOne(ctx, reg, policy)
		if err != nil {
			return outcome, err
		}
		outcome.Add(result)
		b.metrics.RecordProvisionedRow(string(reg.UserType()), string(result.Status))
	}
	return outcome, nil
}

func (b *BulkInserter) insertOne(ctx context.Context, reg models.Registration, policy models.DuplicatePolicy) (models.RowResult, error) {
	common := reg.Common()
	result := models.RowResult{Row: common.Row, Data: reg}

	binding, ok := b.bindings[reg.UserType()]
	if !ok {
		result.Status = models.RowStatusFailed
		result.Error = fmt.Sprintf("unsupported user type %q", reg.UserType())
		return result, nil
	}

	if err := b.validator.Struct(reg); err != nil {
		result.Status = models.RowStatusFailed
		result.Error = describeValidation(err)
		return result, nil
	}

	if policy == models.DuplicatePolicyChecked {
		duplicate, err := b.resolver.IsDuplicate(ctx, reg.UserType(), common.Email)
		if err != nil {
			return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing accounts")
		}
		if duplicate {
			result.Status = models.RowStatusDuplicate
			result.Error = duplicateEmailMessage
			return result, nil
		}
	}

	password, err := b.passwords.Generate()
	if err != nil {
		return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate password")
	}
	hash, err := binding.hasher.Hash(password)
	if err != nil {
		return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	id, err := binding.insert(ctx, reg, hash)
	switch {
	case err == nil:
		result.Status = models.RowStatusSuccess
		result.UserID = id
		result.RawPassword = password
		return result, nil
	case errors.Is(err, appErrors.ErrDuplicateKey):
		result.Status = models.RowStatusDuplicate
		result.Error = duplicateEmailMessage
		return result, nil
	case errors.Is(err, appErrors.ErrConstraint):
		result.Status = models.RowStatusFailed
		result.Error = appErrors.FromError(err).Message
		return result, nil
	default:
		b.logger.Error("insert aborted batch", zap.Int("row", common.Row), zap.String("user_type", string(reg.UserType())), zap.Error(err))
		return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist account")
	}
}

// describeValidation flattens validator errors into a single row message.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if field != "" {
			field = strings.ToLower(field[:1]) + field[1:]
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "email":
			parts = append(parts, field+" must be a valid email address")
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
