package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	"github.com/noah-isme/olympiad-admin-api/pkg/export"
	"github.com/noah-isme/olympiad-admin-api/pkg/storage"
)

var (
	studentLedgerColumns = []string{"name", "email", "rollNo", "schoolName", "class", "olympiadExam", "feeStatus", "userType", "password"}
	salesLedgerColumns   = []string{"name", "email", "phoneNo", "userType", "password"}
	mixedLedgerColumns   = []string{"name", "email", "rollNo", "schoolName", "class", "olympiadExam", "feeStatus", "phoneNo", "userType", "password"}
)

const (
	mixedLedgerPrefix = "mixed_credentials"
	ledgerPlaceholder = "-"
	ledgerExtension   = ".csv"
)

type artifactPublisher interface {
	Publish(prefix, ext string, data []byte) (storage.FileInfo, error)
}

// CredentialLedgerWriter publishes the one-time credential file for a batch.
type CredentialLedgerWriter struct {
	bindings roleBindings
	store    artifactPublisher
	exporter *export.CSVExporter
	logger   *zap.Logger
}

func newCredentialLedgerWriter(bindings roleBindings, store artifactPublisher, logger *zap.Logger) *CredentialLedgerWriter {
	return &CredentialLedgerWriter{
		bindings: bindings,
		store:    store,
		exporter: &export.CSVExporter{Placeholder: ledgerPlaceholder},
		logger:   logger,
	}
}

// Write publishes one row per inserted record. It returns nil when nothing
// was inserted.
func (w *CredentialLedgerWriter) Write(outcome *models.BatchOutcome) (*models.CredentialArtifact, error) {
	rows := outcome.InsertedRows()
	if len(rows) == 0 {
		return nil, nil
	}

	columns, prefix := w.layout(rows)
	data := export.Dataset{Headers: columns, Rows: make([]map[string]string, 0, len(rows))}
	for _, r := range rows {
		data.Rows = append(data.Rows, ledgerRow(r))
	}

	payload, err := w.exporter.Render(data)
	if err != nil {
		return nil, fmt.Errorf("render credential ledger: %w", err)
	}
	info, err := w.store.Publish(prefix, ledgerExtension, payload)
	if err != nil {
		return nil, fmt.Errorf("publish credential ledger: %w", err)
	}
	w.logger.Info("credential ledger published", zap.String("file", info.Name), zap.Int("rows", len(rows)))
	return &models.CredentialArtifact{Name: info.Name, CreatedAt: info.Created, Rows: len(rows)}, nil
}

// layout picks the homogeneous layout when every row shares a user type and
// the superset layout otherwise.
func (w *CredentialLedgerWriter) layout(rows []models.RowResult) ([]string, string) {
	first := rows[0].Data.UserType()
	for _, r := range rows[1:] {
		if r.Data.UserType() != first {
			return mixedLedgerColumns, mixedLedgerPrefix
		}
	}
	binding, ok := w.bindings[first]
	if !ok {
		return mixedLedgerColumns, mixedLedgerPrefix
	}
	return binding.ledgerColumns, binding.ledgerPrefix
}

func ledgerRow(r models.RowResult) map[string]string {
	row := map[string]string{
		"userType": string(r.Data.UserType()),
		"password": r.RawPassword,
	}
	switch reg := r.Data.(type) {
	case *models.StudentRegistration:
		row["name"] = reg.Name
		row["email"] = reg.Email
		row["rollNo"] = reg.RollNo
		row["schoolName"] = reg.SchoolName
		row["class"] = reg.Class
		row["olympiadExam"] = reg.OlympiadExam
		row["feeStatus"] = reg.FeeStatus
	case *models.SalesRegistration:
		row["name"] = reg.Name
		row["email"] = reg.Email
		row["phoneNo"] = reg.PhoneNo
	}
	return row
}
