package models

import "time"

// Audit actions recorded by the services.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionDocumentCreate    = "DOCUMENT_CREATE"
	AuditActionDocumentUpdate    = "DOCUMENT_UPDATE"
	AuditActionDocumentDelete    = "DOCUMENT_DELETE"
	AuditActionDocumentSubmit    = "DOCUMENT_SUBMIT"
	AuditActionDocumentCheck     = "DOCUMENT_APPROVE_CHECK"
	AuditActionDocumentConfirm   = "DOCUMENT_APPROVE_CONFIRM"
	AuditActionJobSectionChange  = "JOB_SECTION_CHANGE"
	AuditActionItemSectionChange = "ITEM_JOB_SECTION_CHANGE"
	AuditActionAdminBootstrap    = "ADMIN_BOOTSTRAP"
	AuditActionUserCreate        = "USER_CREATE"
	AuditActionUserRemove        = "USER_REMOVE"
	AuditActionUserUpdate        = "USER_UPDATE"
	AuditActionPasswordChange    = "USER_PASSWORD_CHANGE"
	AuditActionPasswordReset     = "USER_PASSWORD_RESET"
	AuditActionDocumentVerify    = "DOCUMENT_VERIFY"
	AuditActionDocumentExport    = "DOCUMENT_EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *int64    `db:"user_id" json:"userId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  []byte    `db:"old_values" json:"oldValues,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress,omitempty"`
	UserAgent  string    `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
