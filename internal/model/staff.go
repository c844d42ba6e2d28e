package model

import "time"

// StaffStatus enumerates the verification states of a staff member.
type StaffStatus string

const (
	StaffStatusPending          StaffStatus = "pending"
	StaffStatusAutoVerified     StaffStatus = "auto_verified"
	StaffStatusManuallyVerified StaffStatus = "manually_verified"
	StaffStatusRejected         StaffStatus = "rejected"
)

// IsVerified reports whether the status counts as verified for upload access.
func (s StaffStatus) IsVerified() bool {
	return s == StaffStatusAutoVerified || s == StaffStatusManuallyVerified
}

// VerificationMethod records how a staff member was (or will be) verified.
type VerificationMethod string

const (
	VerificationMethodDomainMatch    VerificationMethod = "domain_match"
	VerificationMethodManualApproval VerificationMethod = "manual_approval"
)

// Staff represents an individual affiliated with an approved institute,
// eligible to upload memories once verified.
type Staff struct {
	ID                 int                `json:"id"`
	FullName           string             `json:"full_name"`
	Email              string             `json:"email"`
	Designation        string             `json:"designation"`
	Department         string             `json:"department,omitempty"`
	EmployeeID         string             `json:"employee_id,omitempty"`
	InstituteID        int                `json:"institute_id"`
	InstituteName      string             `json:"institute_name"`
	VerificationStatus StaffStatus        `json:"verification_status"`
	VerificationMethod VerificationMethod `json:"verification_method"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	VerifiedBy         string             `json:"verified_by,omitempty"`
	RejectedAt         *time.Time         `json:"rejected_at,omitempty"`
	RejectionReason    string             `json:"rejection_reason,omitempty"`
	ProfileImage       string             `json:"profile_image,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// RegisterStaffRequest is the payload for staff self-registration.
// The registrant's email is taken from the authenticated session, never
// from the payload.
type RegisterStaffRequest struct {
	FullName    string `json:"full_name" binding:"required,min=2,max=100"`
	Designation string `json:"designation" binding:"required,min=2,max=100"`
	Department  string `json:"department" binding:"omitempty,max=100"`
	EmployeeID  string `json:"employee_id" binding:"omitempty,max=50"`
	InstituteID int    `json:"institute_id" binding:"required,min=1"`
}

// RegisterStaffResponse is returned after staff registration. AutoVerified
// drives caller messaging: domain-matched staff can upload immediately.
type RegisterStaffResponse struct {
	Staff        *Staff `json:"staff"`
	AutoVerified bool   `json:"auto_verified"`
}

// StaffStatusResponse reports whether the caller is registered staff and
// whether they are verified.
type StaffStatusResponse struct {
	IsStaff    bool   `json:"is_staff"`
	IsVerified bool   `json:"is_verified"`
	Staff      *Staff `json:"staff,omitempty"`
}

// StaffLoginRequest is the alternate (non-OAuth) staff login payload.
type StaffLoginRequest struct {
	Email      string `json:"email" binding:"required,email,max=255"`
	FullName   string `json:"full_name" binding:"required,min=2,max=100"`
	EmployeeID string `json:"employee_id" binding:"required,min=1,max=50"`
}
