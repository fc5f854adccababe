package domain

import (
	"context"
	"time"
)

// User is the credential-store record. Email is the sign-in identifier;
// Username mirrors it. Both are stored lower-cased. The two token fields are
// single-use: a successful consumption nulls them.
type User struct {
	ID                     string     `gorm:"primaryKey;size:64" json:"id"`
	Username               string     `gorm:"uniqueIndex;size:255;not null" json:"username"`
	Email                  string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName               string     `gorm:"size:255;not null" json:"fullName"`
	Picture                *string    `gorm:"size:255" json:"picture,omitempty"`
	PasswordHash           string     `gorm:"size:255;not null" json:"-"`
	IsEmailConfirmed       bool       `gorm:"not null;default:false" json:"isEmailConfirmed"`
	EmailConfirmationToken *string    `gorm:"uniqueIndex;size:64" json:"-"`
	ResetPasswordToken     *string    `gorm:"uniqueIndex;size:64" json:"-"`
	CreateTime             time.Time  `gorm:"autoCreateTime" json:"createTime"`
	UpdateTime             *time.Time `json:"updateTime,omitempty"`
}

func (User) TableName() string { return "users" }

// UserRepository is the credential store. Lookup methods return (nil, nil)
// when no record matches.
type UserRepository interface {
	Insert(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailConfirmationToken(ctx context.Context, token string) (*User, error)
	FindByResetPasswordToken(ctx context.Context, token string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, query string, offset, limit int) ([]User, int64, error)
}
