package models

import "time"

// Foro is a forum grouping related hilos.
type Foro struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Slug        string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedByID uint      `gorm:"not null;index" json:"createdById"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"createdBy,omitempty"`
	HilosCount  int       `gorm:"->;-:migration" json:"hilosCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName pins the table name.
func (Foro) TableName() string { return "foros" }
