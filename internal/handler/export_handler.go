package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	"github.com/noah-isme/olympiad-admin-api/internal/service"
	"github.com/noah-isme/olympiad-admin-api/pkg/response"
)

type accountExporter interface {
	ExportUsers(ctx context.Context, userType, schoolName string) (*service.ExportFile, error)
	StudentFilters(ctx context.Context) (*models.StudentFilterOptions, error)
}

// ExportHandler serves account exports and filter options.
type ExportHandler struct {
	service accountExporter
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(svc accountExporter) *ExportHandler {
	return &ExportHandler{service: svc}
}

// GenerateCSV godoc
// @Summary Export accounts as CSV
// @Tags Export
// @Produce text/csv
// @Param usertype query string false "student or sales, all types when empty"
// @Param schoolname query string false "Case-insensitive school name"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /generate-csv [get]
func (h *ExportHandler) GenerateCSV(c *gin.Context) {
	file, err := h.service.ExportUsers(c.Request.Context(), c.Query("usertype"), c.Query("schoolname"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", attachment(file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// StudentFilters godoc
// @Summary Distinct student filter values
// @Tags Export
// @Produce json
// @Success 200 {object} models.StudentFilterOptions
// @Router /student-filters [get]
func (h *ExportHandler) StudentFilters(c *gin.Context) {
	options, err := h.service.StudentFilters(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, options)
}
