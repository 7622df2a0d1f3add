package models

import (
	"time"

	"cryptostock/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for mutable ledger tables. Ledger rows are
// never deleted, so there is no soft-delete column.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// All lists every model the ledger schema is built from.
func All() []interface{} {
	return []interface{}{
		&Trade{},
		&Holding{},
		&Wallet{},
		&AuditLog{},
	}
}
