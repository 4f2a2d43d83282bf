package domain

import "time"

const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email       string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role        Role       `gorm:"size:16;not null;default:student;index:idx_users_role" json:"role"`
	Status      string     `gorm:"size:32;not null;default:active;index:idx_users_status" json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (u *User) Suspended() bool { return u.Status == UserStatusSuspended }

type OAuthAccount struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	Provider       string    `gorm:"size:32;not null;uniqueIndex:idx_oauth_provider_subject" json:"provider"`
	ProviderUserID string    `gorm:"size:255;not null;uniqueIndex:idx_oauth_provider_subject" json:"provider_user_id"`
	Email          string    `gorm:"size:255" json:"email"`
	CreatedAt      time.Time `json:"created_at"`
}
