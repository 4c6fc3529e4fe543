package models

import "time"

// Notification types.
const (
	NotificacionComment = "comment"
	NotificacionReply   = "reply"
	NotificacionVote    = "vote"
	NotificacionSystem  = "system"
)

// Notificacion is a message addressed to one user.
type Notificacion struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index:idx_notificaciones_user_read" json:"userId"`
	ActorID      *uint     `json:"actorId,omitempty"`
	Type         string    `gorm:"size:20;not null" json:"type"`
	HiloID       *uint     `gorm:"index" json:"hiloId,omitempty"`
	ComentarioID *uint     `json:"comentarioId,omitempty"`
	Message      string    `gorm:"size:500;not null" json:"message"`
	Read         bool      `gorm:"not null;default:false;index:idx_notificaciones_user_read" json:"read"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName pins the table name.
func (Notificacion) TableName() string { return "notificaciones" }
