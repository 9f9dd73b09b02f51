// internal/models/license.go
package models

import (
	"fmt"
	"strings"
	"time"
)

type LicenseStatus string

const (
	LicenseStatusPending  LicenseStatus = "Pending"
	LicenseStatusApproved LicenseStatus = "Approved"
	LicenseStatusRejected LicenseStatus = "Rejected"
	LicenseStatusRevoked  LicenseStatus = "Revoked"
)

// LicenseStatuses lists the states in ledger enum order.
var LicenseStatuses = []LicenseStatus{
	LicenseStatusPending,
	LicenseStatusApproved,
	LicenseStatusRejected,
	LicenseStatusRevoked,
}

// ParseLicenseStatus accepts the ledger spelling case-insensitively.
func ParseLicenseStatus(s string) (LicenseStatus, error) {
	for _, st := range LicenseStatuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown license status %q", s)
}

func (s LicenseStatus) Terminal() bool {
	return s == LicenseStatusRejected || s == LicenseStatusRevoked
}

// LicenseRecord is the typed view of one ledger record. Optional timestamps
// are nil when the ledger holds its zero sentinel.
type LicenseRecord struct {
	ID                 uint64        `json:"id"`
	BusinessName       string        `json:"business_name"`
	RegistrationNumber string        `json:"registration_number"`
	Email              string        `json:"email"`
	PremiseAddress     string        `json:"premise_address"`
	AuditDescription   string        `json:"audit_description"`
	BusinessType       string        `json:"business_type"`
	BusinessSector     string        `json:"business_sector"`
	DocumentReference  string        `json:"document_reference"`
	ApplicantIdentity  string        `json:"applicant_identity"`
	SubmittedAt        *time.Time    `json:"submitted_at"`
	IssuedAt           *time.Time    `json:"issued_at"`
	ExpiresAt          *time.Time    `json:"expires_at"`
	Status             LicenseStatus `json:"status"`
}

// Exists is false for the id=0 "not found" sentinel record.
func (r *LicenseRecord) Exists() bool {
	return r != nil && r.ID != 0
}

// SubmissionDate resolves an unset submission timestamp to now.
func (r *LicenseRecord) SubmissionDate(now time.Time) time.Time {
	if r.SubmittedAt == nil {
		return now
	}
	return *r.SubmittedAt
}

// Expired is true only when an expiry is set and already passed.
func (r *LicenseRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// Submission holds the fields the ledger's submit call takes, in business
// terms. SubType lands in the record's BusinessType, BusinessType in its
// BusinessSector.
type Submission struct {
	BusinessName       string
	RegistrationNumber string
	Email              string
	PremiseAddress     string
	AuditDescription   string
	SubType            string
	BusinessType       string
	DocumentReference  string
}

type Designation string

const (
	DesignationIndividual Designation = "Individual"
	DesignationPartner    Designation = "Partner"
	DesignationProprietor Designation = "Proprietor"
)

// ApplicantDetails are the form fields that get folded into the audit
// description and premise address at submission time.
type ApplicantDetails struct {
	OwnerName   string      `json:"owner_name" form:"owner_name" validate:"required,max=120"`
	Designation Designation `json:"designation" form:"designation" validate:"omitempty,oneof=Individual Partner Proprietor"`
	TaxID       string      `json:"tax_id" form:"tax_id" validate:"required,max=20"`
	Street      string      `json:"street" form:"street" validate:"required,max=255"`
	City        string      `json:"city" form:"city" validate:"required,max=80"`
	State       string      `json:"state" form:"state" validate:"required,max=80"`
	District    string      `json:"district" form:"district" validate:"max=80"`
	Mobile      string      `json:"mobile" form:"mobile" validate:"omitempty,max=20"`
}

// BusinessCatalogue maps each business type to its permitted sub types.
var BusinessCatalogue = map[string][]string{
	"Food Services": {"Canteen", "Caterer", "Cloud Kitchen", "Restaurant", "Cafe", "Snacks Shop"},
	"Manufacturer":  {"Exporter-Manufacturer", "Food Supplements", "Health Supplements"},
	"Trade/Retail":  {"Wholesaler", "Distributor", "Retailer"},
}

func ValidSubType(businessType, subType string) bool {
	for _, s := range BusinessCatalogue[businessType] {
		if s == subType {
			return true
		}
	}
	return false
}

// VerificationResult is what a verifier gets back for a matching pair.
type VerificationResult struct {
	ID                 uint64        `json:"id"`
	BusinessName       string        `json:"business_name"`
	RegistrationNumber string        `json:"registration_number"`
	Email              string        `json:"email"`
	PremiseAddress     string        `json:"premise_address"`
	BusinessType       string        `json:"business_type"`
	BusinessSector     string        `json:"business_sector"`
	DocumentReference  string        `json:"document_reference"`
	IssuedAt           *time.Time    `json:"issued_at"`
	ExpiresAt          *time.Time    `json:"expires_at"`
	Status             LicenseStatus `json:"status"`
	IsExpired          bool          `json:"is_expired"`
	IsActive           bool          `json:"is_active"`
	VerifiedAt         time.Time     `json:"verified_at"`
}
