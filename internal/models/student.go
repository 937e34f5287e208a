package models

import "time"

// Account statuses.
const (
	AccountStatusActive      = "active"
	AccountStatusInactive    = "inactive"
	AccountStatusDeactivated = "deactivated"
)

// Student is a persisted olympiad participant. Only the password hash is
// stored; the generated plaintext never reaches this record.
type Student struct {
	ID           string    `db:"id" bson:"_id" json:"id"`
	Name         string    `db:"name" bson:"name" json:"name"`
	Email        string    `db:"email" bson:"email" json:"email"`
	PasswordHash string    `db:"password_hash" bson:"password" json:"-"`
	RollNo       string    `db:"roll_no" bson:"rollNo" json:"rollNo"`
	SchoolName   string    `db:"school_name" bson:"schoolName" json:"schoolName"`
	SchoolID     string    `db:"school_id" bson:"schoolId" json:"schoolId"`
	Class        string    `db:"class" bson:"class" json:"class"`
	OlympiadExam string    `db:"olympiad_exam" bson:"olympiadExam" json:"olympiadExam"`
	FeeStatus    string    `db:"fee_status" bson:"feeStatus" json:"feeStatus"`
	UserType     UserType  `db:"user_type" bson:"userType" json:"userType"`
	Status       string    `db:"status" bson:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" bson:"updatedAt" json:"updatedAt"`
}

// SalesUser is a persisted sales agent account.
type SalesUser struct {
	ID           string    `db:"id" bson:"_id" json:"id"`
	Name         string    `db:"name" bson:"name" json:"name"`
	Email        string    `db:"email" bson:"email" json:"email"`
	PhoneNo      string    `db:"phone_no" bson:"phoneNo" json:"phoneNo"`
	PasswordHash string    `db:"password_hash" bson:"password" json:"-"`
	UserType     UserType  `db:"user_type" bson:"userType" json:"userType"`
	Status       string    `db:"status" bson:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" bson:"updatedAt" json:"updatedAt"`
}

// AccountFilter narrows account exports.
type AccountFilter struct {
	SchoolName string
}

// StudentFilterOptions lists the distinct values offered by the student filters.
type StudentFilterOptions struct {
	Schools   []string `json:"schools"`
	UserTypes []string `json:"userTypes"`
}
