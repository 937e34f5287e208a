package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
)

func TestMongoStudentRepositoryCreate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserted", func(mt *mtest.T) {
		repo := NewMongoStudentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		student := &models.Student{Name: "Asha", Email: "asha@x.com", UserType: models.UserTypeStudent}
		require.NoError(t, repo.Create(context.Background(), student))
		assert.NotEmpty(t, student.ID)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := NewMongoStudentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))

		err := repo.Create(context.Background(), &models.Student{Email: "asha@x.com"})
		assert.ErrorIs(t, err, appErrors.ErrDuplicateKey)
	})

	mt.Run("validation failure", func(mt *mtest.T) {
		repo := NewMongoStudentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 121, Message: "Document failed validation"}))

		err := repo.Create(context.Background(), &models.Student{Email: "bad@x.com"})
		assert.ErrorIs(t, err, appErrors.ErrConstraint)
	})
}

func TestMongoStudentRepositoryExistsByEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := NewMongoStudentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "olympiad.students", mtest.FirstBatch, bson.D{{Key: "_id", Value: "1"}}))

		exists, err := repo.ExistsByEmail(context.Background(), "asha@x.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewMongoStudentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "olympiad.students", mtest.FirstBatch))

		exists, err := repo.ExistsByEmail(context.Background(), "nobody@x.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestMongoSalesUserRepositoryList(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes documents", func(mt *mtest.T) {
		repo := NewMongoSalesUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "olympiad.salesusers", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "1"}, {Key: "name", Value: "Ravi"}, {Key: "email", Value: "ravi@x.com"}, {Key: "phoneNo", Value: "99"}, {Key: "userType", Value: "sales"}},
		))

		users, err := repo.List(context.Background(), models.AccountFilter{})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "99", users[0].PhoneNo)
		assert.Equal(t, models.UserTypeSales, users[0].UserType)
	})
}
