package models

import "time"

// Base holds the columns shared by journal tables. Rows are append-only.
type Base struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`
}
