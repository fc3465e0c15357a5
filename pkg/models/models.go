package models

import (
	"time"

	"github.com/google/uuid"
)

/* =============================== Enums ================================== */

// Role defines the type of user in the system.
type Role string

const (
	RoleLawyer Role = "LAWYER"
	RoleClient Role = "CLIENT"
)

// CaseStatus defines lifecycle states for a case.
type CaseStatus string

const (
	CasePending CaseStatus = "PENDING"
	CaseActive  CaseStatus = "ACTIVE"
	CaseClosed  CaseStatus = "CLOSED"
)

// Valid reports whether the status is one of the enumerated values.
func (s CaseStatus) Valid() bool {
	switch s {
	case CasePending, CaseActive, CaseClosed:
		return true
	}
	return false
}

// DocumentCategory classifies an uploaded document.
type DocumentCategory string

const (
	DocContract            DocumentCategory = "CONTRACT"
	DocLeaseAgreement      DocumentCategory = "LEASE_AGREEMENT"
	DocEmploymentAgreement DocumentCategory = "EMPLOYMENT_AGREEMENT"
	DocCourtFiling         DocumentCategory = "COURT_FILING"
	DocEvidence            DocumentCategory = "EVIDENCE"
	DocPanCard             DocumentCategory = "PAN_CARD"
	DocAadharCard          DocumentCategory = "AADHAR_CARD"
	DocDrivingLicense      DocumentCategory = "DRIVING_LICENSE"
	DocOther               DocumentCategory = "OTHER"
)

// Valid reports whether the category is one of the enumerated values.
func (c DocumentCategory) Valid() bool {
	switch c {
	case DocContract, DocLeaseAgreement, DocEmploymentAgreement, DocCourtFiling,
		DocEvidence, DocPanCard, DocAadharCard, DocDrivingLicense, DocOther:
		return true
	}
	return false
}

/* ============================== Principal =============================== */

// Principal is the authenticated actor performing an operation. Every
// lifecycle operation takes it as an explicit parameter; there is no
// ambient "current user" state below the HTTP layer.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

/* =============================== Entities =============================== */

// User represents a lawyer or client identity record.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `gorm:"not null" json:"name"`
	Role         Role      `gorm:"type:varchar(20);not null" json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Age          *int      `json:"age,omitempty"`
	About        string    `gorm:"type:text" json:"about,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Case links one lawyer and one client through a status-tracked matter.
// LawyerID and ClientID are assigned at creation and never re-parented.
type Case struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseNumber  string     `gorm:"uniqueIndex;not null" json:"case_number"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      CaseStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	NextHearing *time.Time `json:"next_hearing,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	CaseValue   *float64   `json:"case_value,omitempty"`
	LawyerID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"lawyer_id"`
	ClientID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Documents []Document `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

// HasParticipant reports whether the given user is the case's lawyer or
// client. Access to a case is granted exactly to its two participants.
func (c *Case) HasParticipant(userID uuid.UUID) bool {
	return c.LawyerID == userID || c.ClientID == userID
}

// Document belongs to exactly one case and records who uploaded it.
type Document struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string           `gorm:"not null" json:"name"`
	Key         string           `gorm:"not null" json:"-"`
	Type        string           `gorm:"not null" json:"type"`
	Size        int64            `gorm:"not null" json:"size"`
	Description string           `json:"description,omitempty"`
	Category    DocumentCategory `gorm:"type:varchar(40);not null" json:"category"`
	CaseID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"case_id"`
	UploadedBy  uuid.UUID        `gorm:"type:uuid;not null;index" json:"uploaded_by"`
	UploadedAt  time.Time        `gorm:"autoCreateTime" json:"uploaded_at"`
}

// Notification is an append-only per-user message, created only as a
// side effect of case-status transitions.
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// CaseHistory is an audit log entry for case status transitions.
type CaseHistory struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"case_id"`
	ActorID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"actor_id"`
	Action    string     `gorm:"type:varchar(50);not null" json:"action"`
	OldStatus CaseStatus `gorm:"type:varchar(20)" json:"old_status"`
	NewStatus CaseStatus `gorm:"type:varchar(20)" json:"new_status"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
