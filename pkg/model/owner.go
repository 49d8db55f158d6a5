package model

import (
	"strings"
	"time"
)

// Gender values accepted for an owner record.
const (
	GenderMale        = "Male"
	GenderFemale      = "Female"
	GenderUnspecified = "Prefer not to say"
)

// CivilStatus values accepted for an owner record.
const (
	CivilSingle   = "Single"
	CivilMarried  = "Married"
	CivilDivorced = "Divorced"
	CivilWidowed  = "Widowed"
	CivilOther    = "Other"
)

// OwnerStatus marks a record as active or archived.
type OwnerStatus string

const (
	OwnerActive   OwnerStatus = "Active"
	OwnerInactive OwnerStatus = "Inactive"
)

// Owner is a pet-owner record.
//
// OwnerRef is the short public identifier shown on cards and QR codes;
// PhotoFile is the stored filename of the profile photo (empty when none).
type Owner struct {
	ID                     string      `json:"id"`
	OwnerRef               string      `json:"owner_ref"`
	FirstName              string      `json:"first_name"`
	LastName               string      `json:"last_name"`
	Gender                 string      `json:"gender"`
	Birthdate              *time.Time  `json:"birthdate,omitempty"`
	CivilStatus            string      `json:"civil_status"`
	Email                  string      `json:"email"`
	Phone                  string      `json:"phone"`
	Phone2                 string      `json:"phone2,omitempty"`
	Address                string      `json:"address,omitempty"`
	EmergencyContactPerson string      `json:"emergency_contact_person,omitempty"`
	EmergencyContactNumber string      `json:"emergency_contact_number,omitempty"`
	PhotoFile              string      `json:"photo_file,omitempty"`
	QRCode                 string      `json:"qr_code,omitempty"`
	Status                 OwnerStatus `json:"status"`
	CreatedAt              time.Time   `json:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

// FullName returns "First Last" with surrounding whitespace collapsed.
func (o *Owner) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(o.FirstName) + " " + strings.TrimSpace(o.LastName))
}

// Normalize trims name fields, lowercases the email, and applies defaults
// for enum fields left empty by a form post.
func (o *Owner) Normalize() {
	o.FirstName = strings.TrimSpace(o.FirstName)
	o.LastName = strings.TrimSpace(o.LastName)
	o.Email = strings.ToLower(strings.TrimSpace(o.Email))
	o.Phone = strings.TrimSpace(o.Phone)
	if o.Gender == "" {
		o.Gender = GenderUnspecified
	}
	if o.CivilStatus == "" {
		o.CivilStatus = CivilSingle
	}
	if o.Status == "" {
		o.Status = OwnerActive
	}
}

// Validate returns field errors for a create/update, empty when valid.
func (o *Owner) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(o.FirstName) == "" {
		errs = append(errs, FieldError{Field: "first_name", Message: "First name is required"})
	}
	if strings.TrimSpace(o.LastName) == "" {
		errs = append(errs, FieldError{Field: "last_name", Message: "Last name is required"})
	}
	if strings.TrimSpace(o.Email) == "" {
		errs = append(errs, FieldError{Field: "email", Message: "Email is required"})
	}
	if strings.TrimSpace(o.Phone) == "" {
		errs = append(errs, FieldError{Field: "phone", Message: "Phone is required"})
	}
	return errs
}
