package models

import "time"

type AccessLevel string

const (
	LevelOwner   AccessLevel = "owner"
	LevelViewer  AccessLevel = "viewer"
	LevelPartner AccessLevel = "partner"
)

// AccessPermission rows are append-only. Access changes by granting
// additional rows, never by mutating or deleting existing ones.
type AccessPermission struct {
	ID         string      `gorm:"primaryKey"`
	DocumentID string      `gorm:"index;not null"`
	AccountID  string      `gorm:"index;not null"`
	Level      AccessLevel `gorm:"not null"`
	CreatedAt  time.Time
}
