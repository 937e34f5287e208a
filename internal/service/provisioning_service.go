package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
	"github.com/noah-isme/olympiad-admin-api/pkg/export"
	"github.com/noah-isme/olympiad-admin-api/pkg/storage"
)

// StudentFiltersCacheKey stores the cached student filter options.
const StudentFiltersCacheKey = "filters:students"

const ledgerSheetTitle = "Login credentials"

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// LedgerStore is the artifact directory holding published credential ledgers.
type LedgerStore interface {
	Publish(prefix, ext string, data []byte) (storage.FileInfo, error)
	List() ([]storage.FileInfo, error)
	Open(name string) (*os.File, storage.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

// ProvisioningConfig tunes the pipeline.
type ProvisioningConfig struct {
	DuplicatePolicy models.DuplicatePolicy
	StudentHashCost int
	SalesHashCost   int
	PasswordLength  int
}

// Actor identifies who triggered an operation, for the audit trail.
type Actor struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// ProvisionRequest is one uploaded roster.
type ProvisionRequest struct {
	Source          io.Reader
	DefaultUserType models.UserType
	DefaultSchoolID string
	Policy          models.DuplicatePolicy
	Actor           Actor
}

// ProvisionResult carries whatever the pipeline produced, including on error.
type ProvisionResult struct {
	Outcome  *models.BatchOutcome
	Warnings []string
	Artifact *models.CredentialArtifact
}

// ProvisioningService runs the CSV to accounts to credential ledger pipeline.
type ProvisioningService struct {
	normalizer *RowNormalizer
	inserter   *BulkInserter
	ledger     *CredentialLedgerWriter
	artifacts  LedgerStore
	audit      auditWriter
	cache      *CacheService
	metrics    *MetricsService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	policy     models.DuplicatePolicy
	logger     *zap.Logger
}

// NewProvisioningService wires the pipeline components around the given stores.
func NewProvisioningService(students StudentStore, sales SalesUserStore, artifacts LedgerStore, audit auditWriter, cache *CacheService, metrics *MetricsService, cfg ProvisioningConfig, validate *validator.Validate, logger *zap.Logger) *ProvisioningService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := cfg.DuplicatePolicy
	if policy != models.DuplicatePolicyUnchecked {
		policy = models.DuplicatePolicyChecked
	}
	bindings := newRoleBindings(students, sales, NewCredentialHasher(cfg.StudentHashCost), NewCredentialHasher(cfg.SalesHashCost))
	return &ProvisioningService{
		normalizer: NewRowNormalizer(),
		inserter:   newBulkInserter(bindings, NewPasswordGenerator(cfg.PasswordLength), validate, metrics, logger),
		ledger:     newCredentialLedgerWriter(bindings, artifacts, logger),
		artifacts:  artifacts,
		audit:      audit,
		cache:      cache,
		metrics:    metrics,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		policy:     policy,
		logger:     logger,
	}
}

// Provision parses the roster and provisions every row. Row-level problems are
// reported in the outcome; a non-nil error means the batch as a whole failed.
// The result is returned in both cases so callers can surface warnings and any
// rows processed before the failure.
func (s *ProvisioningService) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	start := time.Now()
	userType := req.DefaultUserType
	if userType == "" {
		userType = models.UserTypeStudent
	}
	result := &ProvisionResult{}

	records, warnings, err := s.readRegistrations(req.Source, NormalizeContext{DefaultUserType: userType, DefaultSchoolID: req.DefaultSchoolID})
	result.Warnings = warnings
	if err != nil {
		s.metrics.ObserveBatch(string(userType), "aborted", time.Since(start))
		return result, err
	}
	if len(records) == 0 {
		s.metrics.ObserveBatch(string(userType), "empty", time.Since(start))
		return result, appErrors.Clone(appErrors.ErrNoValidRows, "")
	}

	policy := req.Policy
	if policy == "" {
		policy = s.policy
	}
	outcome, batchErr := s.inserter.Insert(ctx, records, policy)
	result.Outcome = outcome

	// Accounts inserted before an abort still need their credentials published.
	artifact, ledgerErr := s.ledger.Write(outcome)
	outcome.ForgetPasswords()
	result.Artifact = artifact
	if ledgerErr != nil {
		s.logger.Error("credential ledger not written", zap.Int("inserted", outcome.Inserted), zap.Error(ledgerErr))
		if batchErr == nil {
			batchErr = appErrors.Wrap(ledgerErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write credential file")
		}
	}

	bookkeeping := context.WithoutCancel(ctx)
	if outcome.Inserted > 0 {
		_ = s.cache.Invalidate(bookkeeping, StudentFiltersCacheKey)
	}
	s.recordBatchAudit(bookkeeping, req, userType, result)

	if batchErr != nil {
		s.metrics.ObserveBatch(string(userType), "aborted", time.Since(start))
		return result, batchErr
	}
	s.metrics.ObserveBatch(string(userType), "completed", time.Since(start))
	s.logger.Sugar().Infow("provisioning batch finished",
		"user_type", userType,
		"policy", outcome.Policy,
		"total", outcome.Total,
		"inserted", outcome.Inserted,
		"duplicates", outcome.Duplicates,
		"errored", outcome.Errored,
		"warnings", len(result.Warnings),
		"duration", time.Since(start),
	)
	return result, nil
}

// readRegistrations streams the CSV, skipping blank rows and normalizing the rest.
func (s *ProvisioningService) readRegistrations(src io.Reader, nctx NormalizeContext) ([]models.Registration, []string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid CSV header")
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(headers[i], "\ufeff"))
	}

	var (
		records  []models.Registration
		warnings []string
		row      int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, warnings, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid CSV after row %d", row))
		}
		row++
		if isBlankRow(record) {
			warnings = append(warnings, fmt.Sprintf("row %d: empty row skipped", row))
			continue
		}
		reg, rowWarnings := s.normalizer.NormalizeRecord(headers, record, row, nctx)
		warnings = append(warnings, rowWarnings...)
		records = append(records, reg)
	}
	return records, warnings, nil
}

func (s *ProvisioningService) recordBatchAudit(ctx context.Context, req ProvisionRequest, userType models.UserType, result *ProvisionResult) {
	if s.audit == nil || result.Outcome == nil {
		return
	}
	summary := models.BatchSummary{
		UserType:   userType,
		Policy:     result.Outcome.Policy,
		Total:      result.Outcome.Total,
		Inserted:   result.Outcome.Inserted,
		Duplicates: result.Outcome.Duplicates,
		Errored:    result.Outcome.Errored,
		Warnings:   len(result.Warnings),
	}
	entry := &models.AuditLog{
		Action:    models.AuditActionProvisionStudents,
		Resource:  models.AuditResourceBatch,
		IPAddress: req.Actor.IPAddress,
		UserAgent: req.Actor.UserAgent,
	}
	if userType == models.UserTypeSales {
		entry.Action = models.AuditActionProvisionSales
	}
	if result.Artifact != nil {
		summary.Artifact = result.Artifact.Name
		entry.ResourceID = &result.Artifact.Name
	}
	if req.Actor.UserID != "" {
		entry.UserID = &req.Actor.UserID
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn("marshal batch audit", zap.Error(err))
		return
	}
	entry.NewValues = payload
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("batch audit not recorded", zap.Error(err))
	}
}

// ListLedgers returns published credential ledgers, newest first.
func (s *ProvisioningService) ListLedgers() ([]storage.FileInfo, error) {
	files, err := s.artifacts.List()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list credential files")
	}
	return files, nil
}

// OpenLedger opens a published ledger for streaming. The caller closes the file.
func (s *ProvisioningService) OpenLedger(name string) (*os.File, storage.FileInfo, error) {
	return s.artifacts.Open(name)
}

// RenderLedgerPDF renders a published ledger as a printable login sheet.
func (s *ProvisioningService) RenderLedgerPDF(name string) ([]byte, error) {
	raw, err := s.artifacts.ReadFile(name)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "credential file is unreadable")
	}
	pdf, err := s.pdf.Render(data, ledgerSheetTitle)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render login sheet")
	}
	return pdf, nil
}

// RecordLedgerDownload writes an audit entry for a ledger download.
func (s *ProvisioningService) RecordLedgerDownload(ctx context.Context, actor Actor, name string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     models.AuditActionLedgerDownload,
		Resource:   models.AuditResourceBatch,
		ResourceID: &name,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
	}
	if actor.UserID != "" {
		entry.UserID = &actor.UserID
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("download audit not recorded", zap.String("file", name), zap.Error(err))
	}
}
