package models

import "time"

// Hilo is a discussion thread inside a foro.
//
// VoteCount is a denormalized aggregate of the votes ledger and Version is the
// optimistic concurrency token bumped on every counter write.
type Hilo struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ForoID        uint      `gorm:"not null;index" json:"foroId"`
	Foro          *Foro     `gorm:"foreignKey:ForoID;constraint:OnDelete:CASCADE" json:"foro,omitempty"`
	UserID        uint      `gorm:"not null;index" json:"userId"`
	User          User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Title         string    `gorm:"size:300;not null" json:"title"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	VoteCount     int       `gorm:"not null;default:0" json:"voteCount"`
	Version       uint      `gorm:"not null;default:0" json:"-"`
	CommentsCount int       `gorm:"->;-:migration" json:"commentsCount"`
	MyVote        int       `gorm:"->;-:migration" json:"myVote"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName pins the table name.
func (Hilo) TableName() string { return "hilos" }
