package service

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	"github.com/noah-isme/olympiad-admin-api/internal/repository"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
)

func newTestInserter(students *memoryStudentStore, sales *memorySalesStore) *BulkInserter {
	hasher := NewCredentialHasher(bcrypt.MinCost)
	bindings := newRoleBindings(students, sales, hasher, hasher)
	return newBulkInserter(bindings, NewPasswordGenerator(10), validator.New(), nil, zap.NewNop())
}

func studentReg(row int, email string) *models.StudentRegistration {
	return &models.StudentRegistration{
		RegistrationCommon: models.RegistrationCommon{Row: row, Name: "Student", Email: email},
		RollNo:             "1",
		SchoolName:         "Green Valley",
		SchoolID:           "gv",
		Class:              "5",
		OlympiadExam:       "Math",
		FeeStatus:          "Unpaid",
	}
}

func salesReg(row int, email string) *models.SalesRegistration {
	return &models.SalesRegistration{
		RegistrationCommon: models.RegistrationCommon{Row: row, Name: "Agent", Email: email},
		PhoneNo:            "99",
	}
}

func TestBulkInserterCheckedPolicy(t *testing.T) {
	students := newMemoryStudentStore(models.Student{Email: "taken@x.com"})
	inserter := newTestInserter(students, newMemorySalesStore())

	records := []models.Registration{
		studentReg(1, "a@x.com"),
		studentReg(2, "taken@x.com"),
		studentReg(3, "a@x.com"),
		studentReg(4, "b@x.com"),
	}
	outcome, err := inserter.Insert(context.Background(), records, models.DuplicatePolicyChecked)
	require.NoError(t, err)

	assert.Equal(t, 4, outcome.Total)
	assert.Equal(t, 2, outcome.Inserted)
	assert.Equal(t, 2, outcome.Duplicates)
	assert.Equal(t, 0, outcome.Errored)
	assert.Equal(t, outcome.Total, outcome.Inserted+outcome.Duplicates+outcome.Errored)

	statuses := []models.RowStatus{}
	for _, r := range outcome.Results {
		statuses = append(statuses, r.Status)
	}
	assert.Equal(t, []models.RowStatus{models.RowStatusSuccess, models.RowStatusDuplicate, models.RowStatusDuplicate, models.RowStatusSuccess}, statuses)
	assert.Equal(t, 4, students.lookups)
}

func TestBulkInserterUncheckedPolicyUsesStoreVerdict(t *testing.T) {
	students := newMemoryStudentStore(models.Student{Email: "taken@x.com"})
	inserter := newTestInserter(students, newMemorySalesStore())

	outcome, err := inserter.Insert(context.Background(), []models.Registration{
		studentReg(1, "taken@x.com"),
		studentReg(2, "new@x.com"),
	}, models.DuplicatePolicyUnchecked)
	require.NoError(t, err)

	assert.Equal(t, 0, students.lookups)
	assert.Equal(t, models.RowStatusDuplicate, outcome.Results[0].Status)
	assert.Equal(t, models.RowStatusSuccess, outcome.Results[1].Status)
	assert.Equal(t, outcome.Total, outcome.Inserted+outcome.Duplicates+outcome.Errored)
}

func TestBulkInserterRowFailuresDoNotAbort(t *testing.T) {
	students := newMemoryStudentStore()
	students.createErr["reject@x.com"] = appErrors.Clone(appErrors.ErrConstraint, "status violates check constraint")
	inserter := newTestInserter(students, newMemorySalesStore())

	outcome, err := inserter.Insert(context.Background(), []models.Registration{
		studentReg(1, "not-an-email"),
		studentReg(2, "reject@x.com"),
		studentReg(3, "ok@x.com"),
	}, models.DuplicatePolicyChecked)
	require.NoError(t, err)

	assert.Equal(t, models.RowStatusFailed, outcome.Results[0].Status)
	assert.Contains(t, outcome.Results[0].Error, "email must be a valid email address")
	assert.Equal(t, models.RowStatusFailed, outcome.Results[1].Status)
	assert.Equal(t, "status violates check constraint", outcome.Results[1].Error)
	assert.Equal(t, models.RowStatusSuccess, outcome.Results[2].Status)
	assert.Equal(t, 2, outcome.Errored)
}

func TestBulkInserterPostgresDataExceptionFailsOnlyThatRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO students").
		WillReturnError(&pq.Error{Code: "22021", Message: "invalid byte sequence for encoding \"UTF8\": 0xe9"})
	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))

	hasher := NewCredentialHasher(bcrypt.MinCost)
	students := repository.NewStudentRepository(sqlx.NewDb(db, "sqlmock"))
	bindings := newRoleBindings(students, newMemorySalesStore(), hasher, hasher)
	inserter := newBulkInserter(bindings, NewPasswordGenerator(10), validator.New(), nil, zap.NewNop())

	outcome, err := inserter.Insert(context.Background(), []models.Registration{
		studentReg(1, "jose@x.com"),
		studentReg(2, "asha@x.com"),
	}, models.DuplicatePolicyUnchecked)
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Total)
	assert.Equal(t, models.RowStatusFailed, outcome.Results[0].Status)
	assert.Contains(t, outcome.Results[0].Error, "invalid byte sequence")
	assert.Equal(t, models.RowStatusSuccess, outcome.Results[1].Status)
	assert.Equal(t, 1, outcome.Inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInserterInfrastructureErrorAborts(t *testing.T) {
	students := newMemoryStudentStore()
	students.createErr["b@x.com"] = errors.New("connection refused")
	inserter := newTestInserter(students, newMemorySalesStore())

	outcome, err := inserter.Insert(context.Background(), []models.Registration{
		studentReg(1, "a@x.com"),
		studentReg(2, "b@x.com"),
		studentReg(3, "c@x.com"),
	}, models.DuplicatePolicyChecked)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Status, appErrors.FromError(err).Status)
	assert.Equal(t, 1, outcome.Total)
	assert.Equal(t, 1, students.count())
}

func TestBulkInserterLookupErrorAborts(t *testing.T) {
	students := newMemoryStudentStore()
	students.existsErr = errors.New("timeout")
	inserter := newTestInserter(students, newMemorySalesStore())

	outcome, err := inserter.Insert(context.Background(), []models.Registration{studentReg(1, "a@x.com")}, models.DuplicatePolicyChecked)
	require.Error(t, err)
	assert.Equal(t, 0, outcome.Total)
}

func TestBulkInserterStopsOnCancelledContext(t *testing.T) {
	inserter := newTestInserter(newMemoryStudentStore(), newMemorySalesStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := inserter.Insert(ctx, []models.Registration{studentReg(1, "a@x.com")}, models.DuplicatePolicyChecked)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, outcome.Total)
}

func TestBulkInserterDispatchesByUserType(t *testing.T) {
	students := newMemoryStudentStore()
	sales := newMemorySalesStore()
	inserter := newTestInserter(students, sales)

	outcome, err := inserter.Insert(context.Background(), []models.Registration{
		studentReg(1, "same@x.com"),
		salesReg(2, "same@x.com"),
	}, models.DuplicatePolicyChecked)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Inserted)
	assert.Equal(t, 1, students.count())
	assert.Len(t, sales.byEmail, 1)

	stored := sales.byEmail["same@x.com"]
	assert.Equal(t, models.UserTypeSales, stored.UserType)
	assert.NotEmpty(t, outcome.Results[1].RawPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(outcome.Results[1].RawPassword)))
}
