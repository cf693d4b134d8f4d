package audit

import (
	"errors"
	"time"
)

// Severity levels for audit entries.
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityError    = "ERROR"
	SeverityCritical = "CRITICAL"
)

// Event types the classifier knows about. Unlisted types default to INFO.
const (
	EventLoginSuccess     = "LOGIN_SUCCESS"
	EventLoginFailed      = "LOGIN_FAILED"
	EventLogout           = "LOGOUT"
	EventDataExport       = "DATA_EXPORT"
	EventFileUpload       = "FILE_UPLOAD"
	EventFileDownload     = "FILE_DOWNLOAD"
	EventDataImport       = "DATA_IMPORT"
	EventRoleChange       = "ROLE_CHANGE"
	EventPermissionDenied = "PERMISSION_DENIED"
	EventPasscodeFailed   = "PASSCODE_FAILED"
	EventConfigChange     = "CONFIG_CHANGE"
)

// defaultSeverity classifies event types when the caller omits a severity.
var defaultSeverity = map[string]string{
	EventLoginSuccess:     SeverityInfo,
	EventLoginFailed:      SeverityWarning,
	EventLogout:           SeverityInfo,
	EventDataExport:       SeverityInfo,
	EventFileUpload:       SeverityInfo,
	EventFileDownload:     SeverityInfo,
	EventDataImport:       SeverityInfo,
	EventRoleChange:       SeverityWarning,
	EventPermissionDenied: SeverityWarning,
	EventPasscodeFailed:   SeverityWarning,
	EventConfigChange:     SeverityWarning,
}

// SeverityFor returns the default severity for an event type.
func SeverityFor(eventType string) string {
	if s, ok := defaultSeverity[eventType]; ok {
		return s
	}
	return SeverityInfo
}

// Entry is one audit-log row. The checksum covers the payload fields so a
// later sweep can detect tampering; nothing re-verifies rows inline.
type Entry struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	EventType    string    `json:"event_type" gorm:"column:event_type;not null"`
	Action       string    `json:"action" gorm:"not null"`
	Severity     string    `json:"severity" gorm:"not null"`
	ResourceType string    `json:"resource_type,omitempty" gorm:"column:resource_type"`
	ResourceID   string    `json:"resource_id,omitempty" gorm:"column:resource_id"`
	UserID       *int64    `json:"user_id,omitempty" gorm:"column:user_id"`
	IPAddress    string    `json:"ip_address,omitempty" gorm:"column:ip_address"`
	UserAgent    string    `json:"user_agent,omitempty" gorm:"column:user_agent"`
	Details      string    `json:"details,omitempty" gorm:"type:jsonb"`
	Checksum     string    `json:"checksum" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Entry) TableName() string {
	return "security_audit_log"
}

// LogDTO is the request payload for the audit endpoint and the shape other
// services use to record events in-process.
type LogDTO struct {
	EventType    string                 `json:"event_type"`
	Action       string                 `json:"action"`
	Severity     string                 `json:"severity,omitempty"`
	ResourceType string                 `json:"resource_type,omitempty"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// ValidationError marks DTO validation failures so handlers can map them
// to 400 instead of 500.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (dto LogDTO) Validate() error {
	if dto.EventType == "" {
		return ValidationError{Msg: "event_type is required"}
	}
	if dto.Action == "" {
		return ValidationError{Msg: "action is required"}
	}
	switch dto.Severity {
	case "", SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
	default:
		return ValidationError{Msg: "severity must be one of INFO, WARNING, ERROR, CRITICAL"}
	}
	return nil
}

// Alert is the notification payload fanned out when an entry trips one of
// the alert rules.
type Alert struct {
	EntryID   int64     `json:"entry_id"`
	EventType string    `json:"event_type"`
	Action    string    `json:"action"`
	Severity  string    `json:"severity"`
	Reason    string    `json:"reason"`
	IPAddress string    `json:"ip_address,omitempty"`
	LoggedAt  time.Time `json:"logged_at"`
}

var ErrEntryNotFound = errors.New("audit entry not found")
