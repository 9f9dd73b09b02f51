// internal/models/audit.go
package models

// AuditLog records one mutating API call. Ledger records are never deleted,
// so this table is the off-ledger trail of who asked for what.
type AuditLog struct {
	BaseModel
	CallerIdentity string  `json:"caller_identity" gorm:"size:64;index"`
	Action         string  `json:"action" gorm:"size:100;not null;index"`
	ResourceType   string  `json:"resource_type" gorm:"size:50;not null;index"`
	LicenseID      *uint64 `json:"license_id" gorm:"index"`
	StatusCode     int     `json:"status_code"`
	RequestData    JSONB   `json:"request_data" gorm:"type:jsonb"`
	IPAddress      string  `json:"ip_address" gorm:"size:45"`
	UserAgent      string  `json:"user_agent" gorm:"type:text"`
	RequestID      string  `json:"request_id" gorm:"size:36"`
}
