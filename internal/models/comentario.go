package models

import "time"

// Comentario is a comment on a hilo, optionally replying to another comment.
type Comentario struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	HiloID    uint      `gorm:"not null;index" json:"hiloId"`
	Hilo      *Hilo     `gorm:"foreignKey:HiloID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	ParentID  *uint     `gorm:"index" json:"parentId,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName pins the table name.
func (Comentario) TableName() string { return "comentarios" }
