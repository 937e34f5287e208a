package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
	"github.com/noah-isme/olympiad-admin-api/pkg/export"
)

const exportTimeLayout = time.RFC3339

var (
	studentExportColumns = []string{"name", "email", "rollNo", "schoolName", "class", "olympiadExam", "feeStatus", "createdAt"}
	salesExportColumns   = []string{"name", "email", "phoneNo", "createdAt"}
	userExportColumns    = []string{"name", "email", "userType", "rollNo", "schoolName", "class", "olympiadExam", "feeStatus", "phoneNo", "createdAt"}
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders account exports and the student filter options.
// Password hashes never leave the store through it.
type ExportService struct {
	students   StudentStore
	sales      SalesUserStore
	cache      *CacheService
	csv        csvRenderer
	filtersTTL time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(students StudentStore, sales SalesUserStore, cache *CacheService, filtersTTL time.Duration, logger *zap.Logger, csv csvRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = &export.CSVExporter{Placeholder: ""}
	}
	return &ExportService{students: students, sales: sales, cache: cache, csv: csv, filtersTTL: filtersTTL, now: time.Now, logger: logger}
}

// ExportUsers renders accounts of the requested type (or all types when
// userType is empty) as CSV, optionally narrowed to one school.
func (s *ExportService) ExportUsers(ctx context.Context, userType, schoolName string) (*ExportFile, error) {
	var (
		data   export.Dataset
		prefix string
	)
	filter := models.AccountFilter{SchoolName: schoolName}

	switch strings.TrimSpace(userType) {
	case "":
		students, err := s.students.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
		}
		var sales []models.SalesUser
		if strings.TrimSpace(schoolName) == "" {
			if sales, err = s.sales.List(ctx, filter); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sales users")
			}
		}
		data, prefix = export.Dataset{Headers: userExportColumns}, "users"
		for _, st := range students {
			data.Rows = append(data.Rows, studentExportRow(st))
		}
		for _, u := range sales {
			data.Rows = append(data.Rows, salesExportRow(u))
		}
	default:
		parsed, ok := models.ParseUserType(userType)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "usertype must be student or sales")
		}
		prefix = string(parsed)
		switch parsed {
		case models.UserTypeStudent:
			students, err := s.students.List(ctx, filter)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
			}
			data = export.Dataset{Headers: studentExportColumns}
			for _, st := range students {
				data.Rows = append(data.Rows, studentExportRow(st))
			}
		case models.UserTypeSales:
			sales, err := s.sales.List(ctx, filter)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sales users")
			}
			data = export.Dataset{Headers: salesExportColumns}
			for _, u := range sales {
				data.Rows = append(data.Rows, salesExportRow(u))
			}
		}
	}

	if len(data.Rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no users found")
	}
	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	name := fmt.Sprintf("%s_export_%d.csv", prefix, s.now().UnixMilli())
	s.logger.Info("user export generated", zap.String("file", name), zap.Int("rows", len(data.Rows)))
	return &ExportFile{Name: name, ContentType: "text/csv", Data: payload, Rows: len(data.Rows)}, nil
}

// StudentFilters returns the distinct schools and user types, served from
// the cache when possible.
func (s *ExportService) StudentFilters(ctx context.Context) (*models.StudentFilterOptions, error) {
	var cached models.StudentFilterOptions
	if hit, _ := s.cache.Get(ctx, StudentFiltersCacheKey, &cached); hit {
		return &cached, nil
	}
	opts, err := s.students.FilterOptions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student filters")
	}
	_ = s.cache.Set(ctx, StudentFiltersCacheKey, opts, s.filtersTTL)
	return opts, nil
}

func studentExportRow(st models.Student) map[string]string {
	return map[string]string{
		"name":         st.Name,
		"email":        st.Email,
		"userType":     string(models.UserTypeStudent),
		"rollNo":       st.RollNo,
		"schoolName":   st.SchoolName,
		"class":        st.Class,
		"olympiadExam": st.OlympiadExam,
		"feeStatus":    st.FeeStatus,
		"createdAt":    st.CreatedAt.UTC().Format(exportTimeLayout),
	}
}

func salesExportRow(u models.SalesUser) map[string]string {
	return map[string]string{
		"name":      u.Name,
		"email":     u.Email,
		"userType":  string(models.UserTypeSales),
		"phoneNo":   u.PhoneNo,
		"createdAt": u.CreatedAt.UTC().Format(exportTimeLayout),
	}
}
