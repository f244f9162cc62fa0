package domain

import "time"

type School struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Image       *string   `gorm:"type:text" json:"image"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Phone       string    `gorm:"type:varchar(50);not null" json:"phone"`
	Address     string    `gorm:"type:text;not null" json:"address"`
	Verified    bool      `gorm:"not null;default:false" json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
