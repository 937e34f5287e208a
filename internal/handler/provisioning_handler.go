package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/olympiad-admin-api/internal/dto"
	"github.com/noah-isme/olympiad-admin-api/internal/middleware"
	"github.com/noah-isme/olympiad-admin-api/internal/models"
	"github.com/noah-isme/olympiad-admin-api/internal/service"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
	"github.com/noah-isme/olympiad-admin-api/pkg/response"
	"github.com/noah-isme/olympiad-admin-api/pkg/storage"
)

// multipartOverhead leaves room for boundaries and form fields on top of the file limit.
const multipartOverhead = 1 << 20

var csvMIMETypes = map[string]struct{}{
	"text/csv":                 {},
	"application/csv":          {},
	"application/vnd.ms-excel": {},
}

type provisioningService interface {
	Provision(ctx context.Context, req service.ProvisionRequest) (*service.ProvisionResult, error)
	ListLedgers() ([]storage.FileInfo, error)
	OpenLedger(name string) (*os.File, storage.FileInfo, error)
	RenderLedgerPDF(name string) ([]byte, error)
	RecordLedgerDownload(ctx context.Context, actor service.Actor, name string)
}

type uploadGate interface {
	Acquire(ctx context.Context) (func(), error)
}

type uploadStager interface {
	Acquire(r io.Reader) (*storage.Upload, func(), error)
}

// ProvisioningConfig holds handler level limits.
type ProvisioningConfig struct {
	MaxUploadBytes   int64
	DownloadBasePath string
}

// ProvisioningHandler exposes the roster upload and credential download endpoints.
type ProvisioningHandler struct {
	service provisioningService
	limiter uploadGate
	uploads uploadStager
	cfg     ProvisioningConfig
	logger  *zap.Logger
}

// NewProvisioningHandler constructs a ProvisioningHandler.
func NewProvisioningHandler(svc provisioningService, limiter uploadGate, uploads uploadStager, cfg ProvisioningConfig, logger *zap.Logger) *ProvisioningHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.DownloadBasePath = strings.TrimRight(cfg.DownloadBasePath, "/")
	return &ProvisioningHandler{service: svc, limiter: limiter, uploads: uploads, cfg: cfg, logger: logger}
}

// RegisterStudents godoc
// @Summary Bulk register students from CSV
// @Description Creates one student account per CSV row and publishes a credential file for the created accounts.
// @Tags Provisioning
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster CSV"
// @Param schoolId formData string false "Default school ID for rows without one"
// @Success 200 {object} dto.BatchResponse
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /register-students [post]
func (h *ProvisioningHandler) RegisterStudents(c *gin.Context) {
	h.register(c, models.UserTypeStudent)
}

// RegisterSales godoc
// @Summary Bulk register sales agents from CSV
// @Tags Provisioning
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster CSV"
// @Success 200 {object} dto.BatchResponse
// @Failure 400 {object} response.Envelope
// @Router /register-sales [post]
func (h *ProvisioningHandler) RegisterSales(c *gin.Context) {
	h.register(c, models.UserTypeSales)
}

func (h *ProvisioningHandler) register(c *gin.Context, userType models.UserType) {
	ctx := c.Request.Context()

	releaseSlot, err := h.limiter.Acquire(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer releaseSlot()

	if h.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes+multipartOverhead)
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, uploadError(err))
		return
	}
	if !isCSVUpload(header) {
		response.Error(c, appErrors.ErrUnsupportedFile)
		return
	}
	if h.cfg.MaxUploadBytes > 0 && header.Size > h.cfg.MaxUploadBytes {
		response.Error(c, appErrors.ErrFileTooLarge)
		return
	}

	src, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unable to read uploaded file"))
		return
	}
	defer src.Close()

	upload, release, err := h.uploads.Acquire(src)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer release()

	file, err := upload.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unable to read staged upload"))
		return
	}
	defer file.Close()

	req := service.ProvisionRequest{
		Source:          file,
		DefaultUserType: userType,
		Actor:           actorFromContext(c),
	}
	if userType == models.UserTypeStudent {
		req.DefaultSchoolID = h.defaultSchoolID(c)
	}

	result, err := h.service.Provision(ctx, req)
	if err != nil {
		meta := map[string]interface{}{}
		if result != nil {
			if len(result.Warnings) > 0 {
				meta["warnings"] = result.Warnings
			}
			if result.Outcome != nil && len(result.Outcome.Results) > 0 {
				meta["processedStudents"] = result.Outcome.Results
			}
			if result.Artifact != nil {
				meta["downloadUrl"] = h.downloadURL(result.Artifact.Name)
			}
		}
		if appErrors.FromError(err).Status >= http.StatusInternalServerError {
			h.logger.Error("provisioning batch failed", zap.String("user_type", string(userType)), zap.Error(err))
		}
		response.ErrorWithMeta(c, err, meta)
		return
	}

	var downloadURL string
	if result.Artifact != nil {
		downloadURL = h.downloadURL(result.Artifact.Name)
	}
	response.Raw(c, http.StatusOK, dto.NewBatchResponse(result.Outcome, result.Warnings, downloadURL))
}

// defaultSchoolID prefers the form field and falls back to the school bound to
// a SCHOOL operator's token.
func (h *ProvisioningHandler) defaultSchoolID(c *gin.Context) string {
	if id := strings.TrimSpace(c.PostForm("schoolId")); id != "" {
		return id
	}
	if claims := middleware.Claims(c); claims != nil && claims.Role == models.RoleSchool {
		return claims.SchoolID
	}
	return ""
}

func (h *ProvisioningHandler) downloadURL(name string) string {
	return h.cfg.DownloadBasePath + "/" + name
}

// ListLogins godoc
// @Summary List generated credential files
// @Tags Provisioning
// @Produce json
// @Success 200 {object} dto.LoginFileList
// @Router /download-logins/list [get]
func (h *ProvisioningHandler) ListLogins(c *gin.Context) {
	files, err := h.service.ListLedgers()
	if err != nil {
		response.Error(c, err)
		return
	}
	list := dto.LoginFileList{Files: make([]dto.LoginFile, 0, len(files))}
	for _, f := range files {
		list.Files = append(list.Files, dto.LoginFile{Name: f.Name, Created: f.Created})
	}
	response.Raw(c, http.StatusOK, list)
}

// DownloadLogins godoc
// @Summary Download a credential file
// @Description Streams the stored CSV, or renders it as a printable PDF login sheet with format=pdf.
// @Tags Provisioning
// @Produce text/csv
// @Produce application/pdf
// @Param filename path string true "Credential file name"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /download-logins/{filename} [get]
func (h *ProvisioningHandler) DownloadLogins(c *gin.Context) {
	name := c.Param("filename")

	if strings.EqualFold(c.Query("format"), "pdf") {
		pdf, err := h.service.RenderLedgerPDF(name)
		if err != nil {
			response.Error(c, err)
			return
		}
		h.service.RecordLedgerDownload(c.Request.Context(), actorFromContext(c), name)
		pdfName := strings.TrimSuffix(name, filepath.Ext(name)) + ".pdf"
		c.Header("Cache-Control", "no-store")
		c.Header("Content-Disposition", attachment(pdfName))
		c.Data(http.StatusOK, "application/pdf", pdf)
		return
	}

	file, info, err := h.service.OpenLedger(name)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	h.service.RecordLedgerDownload(c.Request.Context(), actorFromContext(c), info.Name)
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size, "text/csv", file, map[string]string{
		"Content-Disposition": attachment(info.Name),
	})
}

func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

func isCSVUpload(header *multipart.FileHeader) bool {
	if strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	_, ok := csvMIMETypes[strings.ToLower(mediaType)]
	return ok
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return appErrors.ErrFileRequired
	case errors.As(err, &tooLarge), errors.Is(err, multipart.ErrMessageTooLarge):
		return appErrors.ErrFileTooLarge
	case errors.Is(err, http.ErrNotMultipart):
		return appErrors.Wrap(err, appErrors.ErrFileRequired.Code, appErrors.ErrFileRequired.Status, "expected multipart form with a file field")
	default:
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid upload: %v", err))
	}
}
