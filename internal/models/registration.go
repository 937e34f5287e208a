package models

import "strings"

// UserType tags which account collection a registration belongs to.
type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeSales   UserType = "sales"
)

// ParseUserType maps free-form CSV input onto a known user type.
func ParseUserType(raw string) (UserType, bool) {
	switch UserType(strings.ToLower(strings.TrimSpace(raw))) {
	case UserTypeStudent:
		return UserTypeStudent, true
	case UserTypeSales:
		return UserTypeSales, true
	default:
		return "", false
	}
}

// Registration is one normalized CSV row destined to become an account. It is
// implemented only by *StudentRegistration and *SalesRegistration.
type Registration interface {
	UserType() UserType
	Common() *RegistrationCommon
	isRegistration()
}

// RegistrationCommon holds identity fields shared by every user type.
type RegistrationCommon struct {
	Row           int      `json:"row"`
	Name          string   `json:"name" validate:"required,max=200"`
	Email         string   `json:"email" validate:"required,email,max=254"`
	EmailDerived  bool     `json:"emailDerived,omitempty"`
	MissingFields []string `json:"missingFields,omitempty"`
}

// StudentRegistration carries the student-specific field set.
type StudentRegistration struct {
	RegistrationCommon
	RollNo       string `json:"rollNo" validate:"required,max=64"`
	SchoolName   string `json:"schoolName" validate:"required,max=200"`
	SchoolID     string `json:"schoolId" validate:"required,max=64"`
	Class        string `json:"class" validate:"required,max=32"`
	OlympiadExam string `json:"olympiadExam" validate:"required,max=200"`
	FeeStatus    string `json:"feeStatus" validate:"required,max=32"`
}

// UserType implements Registration.
func (*StudentRegistration) UserType() UserType { return UserTypeStudent }

// Common implements Registration.
func (r *StudentRegistration) Common() *RegistrationCommon { return &r.RegistrationCommon }

func (*StudentRegistration) isRegistration() {}

// SalesRegistration carries the sales-agent field set.
type SalesRegistration struct {
	RegistrationCommon
	PhoneNo string `json:"phoneNo" validate:"required,max=32"`
}

// UserType implements Registration.
func (*SalesRegistration) UserType() UserType { return UserTypeSales }

// Common implements Registration.
func (r *SalesRegistration) Common() *RegistrationCommon { return &r.RegistrationCommon }

func (*SalesRegistration) isRegistration() {}
