package dto

import (
	"fmt"
	"time"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
)

// BatchResponse is returned by POST /register-students and /register-sales.
type BatchResponse struct {
	Message           string             `json:"message"`
	Total             int                `json:"total"`
	SuccessCount      int                `json:"successCount"`
	DuplicateCount    int                `json:"duplicateCount"`
	ErrorCount        int                `json:"errorCount"`
	WarningCount      int                `json:"warningCount"`
	Warnings          []string           `json:"warnings,omitempty"`
	DownloadURL       string             `json:"downloadUrl,omitempty"`
	ProcessedStudents []models.RowResult `json:"processedStudents"`
}

// NewBatchResponse summarises an outcome. ErrorCount covers every row that was
// not inserted, duplicates included, so SuccessCount+ErrorCount == Total.
func NewBatchResponse(outcome *models.BatchOutcome, warnings []string, downloadURL string) BatchResponse {
	resp := BatchResponse{
		Warnings:          warnings,
		WarningCount:      len(warnings),
		DownloadURL:       downloadURL,
		ProcessedStudents: []models.RowResult{},
	}
	if outcome == nil {
		resp.Message = "No rows processed"
		return resp
	}
	resp.Total = outcome.Total
	resp.SuccessCount = outcome.Inserted
	resp.DuplicateCount = outcome.Duplicates
	resp.ErrorCount = outcome.Total - outcome.Inserted
	resp.ProcessedStudents = outcome.Results
	resp.Message = fmt.Sprintf("Processed %d rows: %d created, %d duplicates, %d failed",
		outcome.Total, outcome.Inserted, outcome.Duplicates, outcome.Errored)
	return resp
}

// LoginFile is one entry of GET /download-logins/list.
type LoginFile struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
}

// LoginFileList wraps the listing.
type LoginFileList struct {
	Files []LoginFile `json:"files"`
}
