package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
	"github.com/noah-isme/olympiad-admin-api/pkg/export"
	"github.com/noah-isme/olympiad-admin-api/pkg/storage"
)

type provisioningFixture struct {
	svc      *ProvisioningService
	students *memoryStudentStore
	sales    *memorySalesStore
	store    *storage.ArtifactStore
	audit    *recordingAudit
	cache    *memoryCache
}

func newProvisioningFixture(t *testing.T, existing ...models.Student) *provisioningFixture {
	t.Helper()
	store, err := storage.NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	f := &provisioningFixture{
		students: newMemoryStudentStore(existing...),
		sales:    newMemorySalesStore(),
		store:    store,
		audit:    &recordingAudit{},
		cache:    newMemoryCache(),
	}
	cache := NewCacheService(f.cache, nil, 0, zap.NewNop(), true)
	f.svc = NewProvisioningService(f.students, f.sales, store, f.audit, cache, NewMetricsService(), ProvisioningConfig{
		StudentHashCost: bcrypt.MinCost,
		SalesHashCost:   bcrypt.MinCost,
		PasswordLength:  10,
	}, nil, zap.NewNop())
	return f
}

func (f *provisioningFixture) ledger(t *testing.T, name string) export.Dataset {
	t.Helper()
	raw, err := f.store.ReadFile(name)
	require.NoError(t, err)
	data, err := export.NewCSVExporter().Parse(bytes.NewReader(raw))
	require.NoError(t, err)
	return data
}

func TestProvisionStudentsMixedRows(t *testing.T) {
	f := newProvisioningFixture(t)
	f.cache.values[StudentFiltersCacheKey] = &models.StudentFilterOptions{}

	csvBody := "name,email,rollNo,schoolName,class,olympiadExam\n" +
		"Asha,asha@x.com,1,Green Valley,5,Math\n" +
		"Ravi,,2,Green Valley,6,Science\n" +
		"Asha Again,ASHA@x.com,3,Green Valley,5,Math\n"

	result, err := f.svc.Provision(context.Background(), ProvisionRequest{
		Source:          strings.NewReader(csvBody),
		DefaultUserType: models.UserTypeStudent,
		DefaultSchoolID: "gv-1",
		Actor:           Actor{UserID: "admin-1", IPAddress: "10.0.0.1"},
	})
	require.NoError(t, err)

	outcome := result.Outcome
	assert.Equal(t, 3, outcome.Total)
	assert.Equal(t, 2, outcome.Inserted)
	assert.Equal(t, 1, outcome.Duplicates)
	assert.Equal(t, 0, outcome.Errored)
	assert.Equal(t, models.RowStatusDuplicate, outcome.Results[2].Status)
	assert.Equal(t, "ravi2@greenvalley.com", outcome.Results[1].Data.Common().Email)

	require.NotNil(t, result.Artifact)
	data := f.ledger(t, result.Artifact.Name)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "asha@x.com", data.Rows[0]["email"])
	assert.Equal(t, "ravi2@greenvalley.com", data.Rows[1]["email"])

	// Store holds only hashes; the ledger holds the matching plaintext.
	for _, row := range data.Rows {
		stored := f.students.byEmail[row["email"]]
		assert.NotEqual(t, row["password"], stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(row["password"])))
		assert.Equal(t, "gv-1", stored.SchoolID)
		assert.Equal(t, models.AccountStatusActive, stored.Status)
	}
	for _, r := range outcome.Results {
		assert.Empty(t, r.RawPassword)
	}

	assert.Contains(t, f.cache.deleted, StudentFiltersCacheKey)
	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.Equal(t, models.AuditActionProvisionStudents, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "admin-1", *entry.UserID)
	var summary models.BatchSummary
	require.NoError(t, json.Unmarshal(entry.NewValues, &summary))
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, result.Artifact.Name, summary.Artifact)
}

func TestProvisionHeaderOnlyFile(t *testing.T) {
	f := newProvisioningFixture(t)

	result, err := f.svc.Provision(context.Background(), ProvisionRequest{
		Source:          strings.NewReader("name,email,rollNo\n"),
		DefaultUserType: models.UserTypeStudent,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNoValidRows))
	assert.Equal(t, 400, appErrors.FromError(err).Status)
	assert.Nil(t, result.Artifact)

	files, err := f.store.List()
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Empty(t, f.audit.entries)
}

func TestProvisionEmptyFile(t *testing.T) {
	f := newProvisioningFixture(t)
	_, err := f.svc.Provision(context.Background(), ProvisionRequest{Source: strings.NewReader("")})
	assert.True(t, errors.Is(err, appErrors.ErrNoValidRows))
}

func TestProvisionSkipsBlankRows(t *testing.T) {
	f := newProvisioningFixture(t)
	csvBody := "\ufeffname,email\n,\n  ,  \nAsha,asha@x.com\n"

	result, err := f.svc.Provision(context.Background(), ProvisionRequest{Source: strings.NewReader(csvBody), DefaultUserType: models.UserTypeStudent})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Outcome.Total)
	assert.Equal(t, 3, result.Outcome.Results[0].Row)
	assert.Contains(t, result.Warnings, "row 1: empty row skipped")
	assert.Contains(t, result.Warnings, "row 2: empty row skipped")
}

func TestProvisionAllDuplicatesPublishesNothing(t *testing.T) {
	f := newProvisioningFixture(t, models.Student{Email: "asha@x.com"})
	f.cache.values[StudentFiltersCacheKey] = &models.StudentFilterOptions{}

	result, err := f.svc.Provision(context.Background(), ProvisionRequest{
		Source:          strings.NewReader("name,email\nAsha,asha@x.com\n"),
		DefaultUserType: models.UserTypeStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Outcome.Inserted)
	assert.Nil(t, result.Artifact)
	assert.Empty(t, f.cache.deleted)
	require.Len(t, f.audit.entries, 1)
	assert.Nil(t, f.audit.entries[0].ResourceID)
}

func TestProvisionSalesRoster(t *testing.T) {
	f := newProvisioningFixture(t)

	result, err := f.svc.Provision(context.Background(), ProvisionRequest{
		Source:          strings.NewReader("name,email,phone no\nRavi,,98765\n"),
		DefaultUserType: models.UserTypeSales,
		Policy:          models.DuplicatePolicyUnchecked,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DuplicatePolicyUnchecked, result.Outcome.Policy)
	require.NotNil(t, result.Artifact)
	assert.True(t, strings.HasPrefix(result.Artifact.Name, "sales_credentials_"))
	assert.Contains(t, f.sales.byEmail, "ravi98765@sales.com")
	assert.Equal(t, models.AuditActionProvisionSales, f.audit.entries[0].Action)
}

func TestProvisionAbortStillPublishesInsertedCredentials(t *testing.T) {
	f := newProvisioningFixture(t)
	f.students.createErr["b@x.com"] = errors.New("connection reset")

	result, err := f.svc.Provision(context.Background(), ProvisionRequest{
		Source:          strings.NewReader("name,email\nA,a@x.com\nB,b@x.com\nC,c@x.com\n"),
		DefaultUserType: models.UserTypeStudent,
	})
	require.Error(t, err)
	assert.Equal(t, 500, appErrors.FromError(err).Status)
	require.NotNil(t, result.Artifact)
	assert.Equal(t, 1, result.Artifact.Rows)
	assert.Equal(t, 1, result.Outcome.Total)
}

func TestProvisionMalformedCSV(t *testing.T) {
	f := newProvisioningFixture(t)

	_, err := f.svc.Provision(context.Background(), ProvisionRequest{
		Source: strings.NewReader("name,email\n\"unterminated,a@x.com\n"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, 0, f.students.count())
}

func TestLedgerListingAndPDF(t *testing.T) {
	f := newProvisioningFixture(t)
	result, err := f.svc.Provision(context.Background(), ProvisionRequest{
		Source:          strings.NewReader("name,email\nAsha,asha@x.com\n"),
		DefaultUserType: models.UserTypeStudent,
	})
	require.NoError(t, err)

	files, err := f.svc.ListLedgers()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, result.Artifact.Name, files[0].Name)

	pdf, err := f.svc.RenderLedgerPDF(result.Artifact.Name)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = f.svc.RenderLedgerPDF("missing.csv")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	f.svc.RecordLedgerDownload(context.Background(), Actor{UserID: "admin-1"}, result.Artifact.Name)
	last := f.audit.entries[len(f.audit.entries)-1]
	assert.Equal(t, models.AuditActionLedgerDownload, last.Action)
}

func TestProvisionDerivesUsableEmailsForPunctuatedSchools(t *testing.T) {
	f := newProvisioningFixture(t)

	csvBody := "name,email,rollNo,schoolName\n" +
		"Ravi,,2,St. Mary's School\n" +
		"Asha,,3,Kendriya Vidyalaya (No. 2)\n"

	result, err := f.svc.Provision(context.Background(), ProvisionRequest{
		Source:          strings.NewReader(csvBody),
		DefaultUserType: models.UserTypeStudent,
	})
	require.NoError(t, err)

	outcome := result.Outcome
	assert.Equal(t, 2, outcome.Inserted)
	assert.Equal(t, 0, outcome.Errored)
	assert.Equal(t, "ravi2@st.marysschool.com", outcome.Results[0].Data.Common().Email)
	assert.Equal(t, "asha3@kendriyavidyalayano.2.com", outcome.Results[1].Data.Common().Email)
	require.NotNil(t, result.Artifact)
	assert.Len(t, f.ledger(t, result.Artifact.Name).Rows, 2)
}

func TestProvisionRepairsLatin1Cells(t *testing.T) {
	f := newProvisioningFixture(t)

	csvBody := "name,email,rollNo,schoolName\n" +
		"Jos\xe9,jose@x.com,1,Green Valley\n" +
		"Asha,asha@x.com,2,Green Valley\n"

	result, err := f.svc.Provision(context.Background(), ProvisionRequest{
		Source:          strings.NewReader(csvBody),
		DefaultUserType: models.UserTypeStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Outcome.Inserted)
	assert.Equal(t, "Jos\uFFFD", f.students.byEmail["jose@x.com"].Name)
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "row 1: invalid UTF-8 replaced in name")
}
