package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
)

// Defaults applied when a row leaves a required field empty.
const (
	defaultSchoolName   = "Unknown School"
	defaultClass        = "1"
	defaultOlympiadExam = "General"
	defaultFeeStatus    = "Unpaid"
	defaultPhoneNo      = "N/A"
	defaultSchoolID     = "unassigned"
	salesEmailDomain    = "sales"
	fallbackEmailLocal  = "user"
	fallbackEmailDomain = "school"
)

// NormalizeContext carries request-level defaults into row normalization.
type NormalizeContext struct {
	DefaultUserType models.UserType
	DefaultSchoolID string
}

// RowNormalizer maps raw CSV cells onto typed registrations. It holds no state
// and is safe for concurrent use.
type RowNormalizer struct{}

// NewRowNormalizer constructs a RowNormalizer.
func NewRowNormalizer() *RowNormalizer {
	return &RowNormalizer{}
}

// Normalize trims, defaults and derives the fields of one data row keyed by
// header. Headers are visited in sorted order so duplicates resolve the same
// way on every call.
func (n *RowNormalizer) Normalize(raw map[string]string, row int, reqCtx NormalizeContext) (models.Registration, []string) {
	headers := make([]string, 0, len(raw))
	for header := range raw {
		headers = append(headers, header)
	}
	sort.Strings(headers)
	record := make([]string, len(headers))
	for i, header := range headers {
		record[i] = raw[header]
	}
	return n.NormalizeRecord(headers, record, row, reqCtx)
}

// NormalizeRecord is Normalize for a positional CSV record. When two headers
// collapse to the same key the leftmost non-empty cell wins. The row index is
// 1-based. Returned warnings describe any defaults or repairs that were applied.
func (n *RowNormalizer) NormalizeRecord(headers, record []string, row int, reqCtx NormalizeContext) (models.Registration, []string) {
	cells, repaired := cellsFromRecord(headers, record)
	var warnings []string
	if len(repaired) > 0 {
		warnings = append(warnings, fmt.Sprintf("row %d: invalid UTF-8 replaced in %s", row, strings.Join(repaired, ", ")))
	}

	userType := reqCtx.DefaultUserType
	if userType == "" {
		userType = models.UserTypeStudent
	}
	if value := cells.get("usertype", "user type"); value != "" {
		parsed, ok := models.ParseUserType(value)
		if ok {
			userType = parsed
		} else {
			warnings = append(warnings, fmt.Sprintf("row %d: unknown userType %q, using %s", row, value, userType))
		}
	}

	var reg models.Registration
	switch userType {
	case models.UserTypeSales:
		reg = n.sales(cells, row)
	default:
		reg = n.student(cells, row, reqCtx)
	}

	if missing := reg.Common().MissingFields; len(missing) > 0 {
		warnings = append(warnings, fmt.Sprintf("row %d: missing %s, defaults applied", row, strings.Join(missing, ", ")))
	}
	return reg, warnings
}

func (n *RowNormalizer) student(cells rowCells, row int, reqCtx NormalizeContext) *models.StudentRegistration {
	var missing []string
	name := cells.require(&missing, "name", "user"+strconv.Itoa(row), "name")
	rollNo := cells.require(&missing, "rollNo", strconv.Itoa(row), "rollno", "roll no")
	school := cells.require(&missing, "schoolName", defaultSchoolName, "schoolname", "school name", "school")
	class := cells.require(&missing, "class", defaultClass, "class", "grade")
	exam := cells.require(&missing, "olympiadExam", defaultOlympiadExam, "olympiadexam", "olympiad exam", "exam")

	schoolID := cells.get("schoolid", "school id")
	if schoolID == "" {
		schoolID = strings.TrimSpace(reqCtx.DefaultSchoolID)
	}
	if schoolID == "" {
		schoolID = defaultSchoolID
	}
	feeStatus := cells.get("feestatus", "fee status")
	if feeStatus == "" {
		feeStatus = defaultFeeStatus
	}

	email, derived := deriveEmail(cells.get("email"), name, rollNo, school)
	if derived {
		missing = append(missing, "email")
	}

	return &models.StudentRegistration{
		RegistrationCommon: models.RegistrationCommon{
			Row:           row,
			Name:          name,
			Email:         email,
			EmailDerived:  derived,
			MissingFields: missing,
		},
		RollNo:       rollNo,
		SchoolName:   school,
		SchoolID:     schoolID,
		Class:        class,
		OlympiadExam: exam,
		FeeStatus:    feeStatus,
	}
}

func (n *RowNormalizer) sales(cells rowCells, row int) *models.SalesRegistration {
	var missing []string
	name := cells.require(&missing, "name", "user"+strconv.Itoa(row), "name")
	phone := cells.require(&missing, "phoneNo", defaultPhoneNo, "phoneno", "phone no", "phone")

	domain := cells.get("schoolname", "school name")
	if domain == "" {
		domain = salesEmailDomain
	}
	email, derived := deriveEmail(cells.get("email"), name, phone, domain)
	if derived {
		missing = append(missing, "email")
	}

	return &models.SalesRegistration{
		RegistrationCommon: models.RegistrationCommon{
			Row:           row,
			Name:          name,
			Email:         email,
			EmailDerived:  derived,
			MissingFields: missing,
		},
		PhoneNo: phone,
	}
}

// deriveEmail lower-cases a supplied email or synthesizes one from the
// already defaulted identity fields. Synthesized addresses keep only
// characters that are valid in a mailbox or host name.
func deriveEmail(supplied, name, identity, domain string) (string, bool) {
	if email := strings.ToLower(strings.TrimSpace(supplied)); email != "" {
		return email, false
	}
	local := emailPart(name+identity, "._-")
	if local == "" {
		local = fallbackEmailLocal
	}
	host := emailPart(domain, ".-")
	if host == "" {
		host = fallbackEmailDomain
	}
	return local + "@" + host + ".com", true
}

// emailPart lower-cases s and drops everything except ASCII letters, digits
// and the given separators. Dot-separated labels are trimmed of separators and
// empty labels are removed.
func emailPart(s, separators string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(separators, r):
			b.WriteRune(r)
		}
	}
	labels := strings.Split(b.String(), ".")
	kept := labels[:0]
	for _, label := range labels {
		if label = strings.Trim(label, "_-"); label != "" {
			kept = append(kept, label)
		}
	}
	return strings.Join(kept, ".")
}

// isBlankRow reports whether every cell of a record is whitespace.
func isBlankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// rowCells indexes a row by lower-cased, trimmed header name.
type rowCells map[string]string

// cellsFromRecord walks the record in header order. It returns the headers
// whose cells held invalid UTF-8 and were repaired.
func cellsFromRecord(headers, record []string) (rowCells, []string) {
	cells := make(rowCells, len(headers))
	var repaired []string
	for i, header := range headers {
		if i >= len(record) {
			break
		}
		k := strings.ToLower(strings.TrimSpace(header))
		v := strings.TrimSpace(record[i])
		if !utf8.ValidString(v) {
			v = strings.ToValidUTF8(v, "\uFFFD")
			repaired = append(repaired, strings.TrimSpace(header))
		}
		if existing, ok := cells[k]; ok && existing != "" {
			continue
		}
		cells[k] = v
	}
	return cells, repaired
}

// get returns the first non-empty value among the given header aliases.
func (c rowCells) get(keys ...string) string {
	for _, key := range keys {
		if v := c[key]; v != "" {
			return v
		}
	}
	return ""
}

// require behaves like get but records field as missing and returns fallback
// when no alias holds a value.
func (c rowCells) require(missing *[]string, field, fallback string, keys ...string) string {
	if v := c.get(keys...); v != "" {
		return v
	}
	*missing = append(*missing, field)
	return fallback
}
