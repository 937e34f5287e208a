package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionProvisionStudents = "PROVISION_STUDENTS"
	AuditActionProvisionSales    = "PROVISION_SALES"
	AuditActionLedgerDownload    = "LEDGER_DOWNLOAD"
	AuditActionUserExport        = "USER_EXPORT"
)

// Audit resources.
const (
	AuditResourceBatch    = "provisioning_batch"
	AuditResourceAccounts = "accounts"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// BatchSummary is the payload stored with a provisioning audit entry.
type BatchSummary struct {
	UserType   UserType        `json:"userType"`
	Policy     DuplicatePolicy `json:"policy"`
	Total      int             `json:"total"`
	Inserted   int             `json:"inserted"`
	Duplicates int             `json:"duplicates"`
	Errored    int             `json:"errored"`
	Warnings   int             `json:"warnings"`
	Artifact   string          `json:"artifact,omitempty"`
}
