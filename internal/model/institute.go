package model

import "time"

// InstituteStatus enumerates the approval states of an institute.
type InstituteStatus string

const (
	InstituteStatusPending  InstituteStatus = "pending"
	InstituteStatusApproved InstituteStatus = "approved"
	InstituteStatusRejected InstituteStatus = "rejected"
)

// Institute represents an educational organization that self-registers and
// must be approved by the platform admin before its staff can be verified.
type Institute struct {
	ID                 int             `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	Domain             string          `json:"domain"`
	LogoURL            string          `json:"logo_url,omitempty"`
	AdminName          string          `json:"admin_name"`
	Designation        string          `json:"designation"`
	ContactNumber      string          `json:"contact_number"`
	Address            Address         `json:"address"`
	VerificationStatus InstituteStatus `json:"verification_status"`
	VerifiedAt         *time.Time      `json:"verified_at,omitempty"`
	VerifiedBy         string          `json:"verified_by,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Address is the institute's postal address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

// RegisterInstituteRequest is the payload for institute self-registration.
type RegisterInstituteRequest struct {
	Name          string  `json:"name" binding:"required,min=2,max=200"`
	Email         string  `json:"email" binding:"required,email,max=255"`
	Domain        string  `json:"domain" binding:"required,fqdn,max=255"`
	LogoURL       string  `json:"logo_url" binding:"omitempty,url"`
	AdminName     string  `json:"admin_name" binding:"required,min=2,max=100"`
	Designation   string  `json:"designation" binding:"required,min=2,max=100"`
	ContactNumber string  `json:"contact_number" binding:"required,min=6,max=20"`
	Address       Address `json:"address"`
}

// InstituteOption is the public projection used to populate staff
// registration choices. Only approved institutes are listed.
type InstituteOption struct {
	ID     int             `json:"id"`
	Name   string          `json:"name"`
	Domain string          `json:"domain"`
	Status InstituteStatus `json:"verification_status"`
}

// InstituteLoginRequest is the alternate (non-OAuth) institute login payload.
type InstituteLoginRequest struct {
	InstituteName string `json:"institute_name" binding:"required,min=2,max=200"`
	AdminName     string `json:"admin_name" binding:"required,min=2,max=100"`
	Designation   string `json:"designation" binding:"required,min=2,max=100"`
}
