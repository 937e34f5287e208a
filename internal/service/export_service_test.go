package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
	"github.com/noah-isme/olympiad-admin-api/pkg/export"
)

func seededStores(t *testing.T) (*memoryStudentStore, *memorySalesStore) {
	t.Helper()
	students := newMemoryStudentStore()
	sales := newMemorySalesStore()
	ctx := context.Background()
	require.NoError(t, students.Create(ctx, &models.Student{Name: "Asha", Email: "asha@x.com", PasswordHash: "hash-a", SchoolName: "Green Valley", RollNo: "1"}))
	require.NoError(t, students.Create(ctx, &models.Student{Name: "Mia", Email: "mia@x.com", PasswordHash: "hash-m", SchoolName: "North"}))
	require.NoError(t, sales.Create(ctx, &models.SalesUser{Name: "Ravi", Email: "ravi@x.com", PhoneNo: "99", PasswordHash: "hash-r"}))
	return students, sales
}

func TestExportUsersStudentsBySchool(t *testing.T) {
	students, sales := seededStores(t)
	svc := NewExportService(students, sales, nil, time.Minute, zap.NewNop(), nil)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	file, err := svc.ExportUsers(context.Background(), "student", "Green Valley")
	require.NoError(t, err)
	assert.Equal(t, "student_export_1700000000000.csv", file.Name)
	assert.Equal(t, 1, file.Rows)
	assert.NotContains(t, string(file.Data), "hash-a")

	data, err := export.NewCSVExporter().Parse(bytes.NewReader(file.Data))
	require.NoError(t, err)
	assert.Equal(t, studentExportColumns, data.Headers)
	assert.Equal(t, "asha@x.com", data.Rows[0]["email"])
}

func TestExportUsersAllTypes(t *testing.T) {
	students, sales := seededStores(t)
	svc := NewExportService(students, sales, nil, time.Minute, zap.NewNop(), nil)

	file, err := svc.ExportUsers(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, file.Rows)
	assert.Contains(t, file.Name, "users_export_")
}

func TestExportUsersErrors(t *testing.T) {
	students, sales := seededStores(t)
	svc := NewExportService(students, sales, nil, time.Minute, zap.NewNop(), nil)

	_, err := svc.ExportUsers(context.Background(), "teacher", "")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.ExportUsers(context.Background(), "student", "Nowhere High")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestStudentFiltersAreCached(t *testing.T) {
	students, sales := seededStores(t)
	repo := newMemoryCache()
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	svc := NewExportService(students, sales, cache, time.Minute, zap.NewNop(), nil)

	first, err := svc.StudentFilters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Green Valley", "North"}, first.Schools)
	require.Contains(t, repo.values, StudentFiltersCacheKey)

	require.NoError(t, students.Create(context.Background(), &models.Student{Email: "z@x.com", SchoolName: "Zeta"}))
	second, err := svc.StudentFilters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Schools, second.Schools, "served from cache")

	require.NoError(t, cache.Invalidate(context.Background(), StudentFiltersCacheKey))
	third, err := svc.StudentFilters(context.Background())
	require.NoError(t, err)
	assert.Contains(t, third.Schools, "Zeta")
}
