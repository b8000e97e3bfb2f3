package models

import "time"

// Signer enrolls one account against one certificate. The ID hashes
// (certificateID, email), so re-enrolling the same pair collides.
type Signer struct {
	ID            string `gorm:"primaryKey"`
	CertificateID string `gorm:"index;not null"`
	AccountID     string `gorm:"index;not null"`
	Name          string
	Email         string `gorm:"not null"`
	Signed        bool   `gorm:"not null;default:false"`
	SignedOn      *time.Time
	CreatedAt     time.Time
}
