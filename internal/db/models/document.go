package models

import "time"

type DocumentStatus string

const (
	StatusSent    DocumentStatus = "sent"
	StatusSigned  DocumentStatus = "signed"
	StatusRevoked DocumentStatus = "revoked"
)

// Document is one certified artifact in an owner's lineage. Its ID is
// the hash of the owner's ID, so at most one logical document can ever
// be created per owner.
type Document struct {
	ID           string `gorm:"primaryKey"`
	OwnerID      string `gorm:"index;not null"`
	Name         string `gorm:"not null"`
	FolderName   string
	Status       DocumentStatus `gorm:"not null;default:'sent'"`
	SignerCount  int            `gorm:"not null;default:1"`
	RequestedAt  string         `gorm:"not null"` // RFC3339 UTC, verbatim copy of the embedded payload timestamp
	ValidUntil   *time.Time
	BlobKey      string `gorm:"not null"`
	BlobLocation string
	BlobETag     string
	CreatedAt    time.Time
}
