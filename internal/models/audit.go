package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog — неизменяемая запись журнала; только INSERT.
// changed_by без внешнего ключа: запись переживает пользователя. 0 — системный актор.
type AuditLog struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Table     string            `gorm:"column:table_name;size:64;not null;index:idx_audit_record,priority:1" json:"table_name"`
	RecordID  uint              `gorm:"not null;index:idx_audit_record,priority:2" json:"record_id"`
	ChangedBy uint              `gorm:"not null;index" json:"changed_by"`
	OldValues datatypes.JSONMap `gorm:"not null" json:"old_values"`
	NewValues datatypes.JSONMap `gorm:"not null" json:"new_values"`
	Timestamp time.Time         `gorm:"not null" json:"timestamp"`
}

func (AuditLog) TableName() string { return "audit_logs" }
