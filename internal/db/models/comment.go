package models

import "time"

// Comment is an append-only audit trail entry; never updated or deleted.
type Comment struct {
	ID            string `gorm:"primaryKey"`
	CertificateID string `gorm:"index;not null"`
	AccountID     string `gorm:"not null"`
	Comment       string `gorm:"not null"`
	CreatedAt     time.Time
}
