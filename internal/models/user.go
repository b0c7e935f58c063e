package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	Username     string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	FirstName    string    `gorm:"size:150;not null" json:"first_name"`
	LastName     string    `gorm:"size:150;not null" json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Subscription means UserID follows AuthorID.
type Subscription struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time
	UserID    uint `gorm:"not null;uniqueIndex:idx_subscription_user_author"`
	AuthorID  uint `gorm:"not null;uniqueIndex:idx_subscription_user_author;index"`
	User      User `gorm:"constraint:OnDelete:CASCADE"`
	Author    User `gorm:"constraint:OnDelete:CASCADE"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
