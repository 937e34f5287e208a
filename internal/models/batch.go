package models

import "time"

// DuplicatePolicy selects how the bulk inserter handles existing emails.
type DuplicatePolicy string

const (
	// DuplicatePolicyChecked queries the store before each insert.
	DuplicatePolicyChecked DuplicatePolicy = "checked"
	// DuplicatePolicyUnchecked inserts unconditionally and lets the store's
	// unique index decide.
	DuplicatePolicyUnchecked DuplicatePolicy = "unchecked"
)

// RowStatus is the outcome of one row.
type RowStatus string

const (
	RowStatusSuccess   RowStatus = "success"
	RowStatusDuplicate RowStatus = "duplicate"
	RowStatusFailed    RowStatus = "failed"
)

// RowResult records what happened to a single registration.
type RowResult struct {
	Row    int          `json:"row"`
	Status RowStatus    `json:"status"`
	Data   Registration `json:"data"`
	UserID string       `json:"userId,omitempty"`
	Error  string       `json:"error,omitempty"`

	// RawPassword is held only until the credential ledger is written.
	RawPassword string `json:"-"`
}

// BatchOutcome is the ordered result of one upload.
type BatchOutcome struct {
	Policy     DuplicatePolicy `json:"policy"`
	Results    []RowResult     `json:"results"`
	Total      int             `json:"total"`
	Inserted   int             `json:"inserted"`
	Duplicates int             `json:"duplicates"`
	Errored    int             `json:"errored"`
}

// Add appends a row result and updates the aggregate counters.
func (o *BatchOutcome) Add(result RowResult) {
	o.Results = append(o.Results, result)
	o.Total++
	switch result.Status {
	case RowStatusSuccess:
		o.Inserted++
	case RowStatusDuplicate:
		o.Duplicates++
	default:
		o.Errored++
	}
}

// InsertedRows returns the successfully persisted rows in file order.
func (o *BatchOutcome) InsertedRows() []RowResult {
	rows := make([]RowResult, 0, o.Inserted)
	for _, r := range o.Results {
		if r.Status == RowStatusSuccess {
			rows = append(rows, r)
		}
	}
	return rows
}

// ForgetPasswords drops every plaintext password held by the outcome.
func (o *BatchOutcome) ForgetPasswords() {
	for i := range o.Results {
		o.Results[i].RawPassword = ""
	}
}

// CredentialArtifact describes a published credential ledger file.
type CredentialArtifact struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created"`
	Rows      int       `json:"rows"`
}
