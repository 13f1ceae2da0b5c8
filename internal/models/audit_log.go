package models

// AuditLog records mutating operations on clients and transactions.
type AuditLog struct {
	Base
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null;index:idx_audit_logs_resource,priority:1" json:"resourceType"`
	ResourceID   uint   `gorm:"index:idx_audit_logs_resource,priority:2" json:"resourceId"`
	IPAddress    string `json:"ipAddress"`
	Changes      string `json:"changes,omitempty"`
}
