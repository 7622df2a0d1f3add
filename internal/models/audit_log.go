package models

// AuditLog records every mutation of a user's holdings or wallet.
type AuditLog struct {
	Base
	Email        string `gorm:"not null;index" json:"email"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
