package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	"github.com/noah-isme/olympiad-admin-api/internal/service"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
)

type exportServiceMock struct {
	userType, school string
	file             *service.ExportFile
	err              error
	filters          *models.StudentFilterOptions
}

func (m *exportServiceMock) ExportUsers(ctx context.Context, userType, schoolName string) (*service.ExportFile, error) {
	m.userType, m.school = userType, schoolName
	return m.file, m.err
}

func (m *exportServiceMock) StudentFilters(ctx context.Context) (*models.StudentFilterOptions, error) {
	return m.filters, m.err
}

func TestExportHandlerGenerateCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &exportServiceMock{file: &service.ExportFile{Name: "students_export_1.csv", ContentType: "text/csv", Data: []byte("name\nAsha\n"), Rows: 1}}
	handler := NewExportHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/generate-csv?usertype=student&schoolname=Delhi%20Public", nil)

	handler.GenerateCSV(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "student", svc.userType)
	assert.Equal(t, "Delhi Public", svc.school)
	assert.Equal(t, "name\nAsha\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "students_export_1.csv")
}

func TestExportHandlerGenerateCSVNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&exportServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "no users found")})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/generate-csv?usertype=sales", nil)

	handler.GenerateCSV(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no users found")
}

func TestExportHandlerStudentFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&exportServiceMock{filters: &models.StudentFilterOptions{Schools: []string{"A"}, UserTypes: []string{"student"}}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/student-filters", nil)

	handler.StudentFilters(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"schools":["A"],"userTypes":["student"]}`, w.Body.String())
}
