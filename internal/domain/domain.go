package domain

import (
	"errors"
	"time"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDoctorAlreadyExists = errors.New("username already registered")
)

// Doctor is the account that owns patient records. The username is the
// identity key and is never changed after registration.
type Doctor struct {
	Username     string    `bson:"_id" gorm:"column:username;type:varchar(150);primaryKey"`
	PasswordHash string    `bson:"password" gorm:"column:password;type:varchar(255);not null"`
	CreatedAt    time.Time `bson:"created_at" gorm:"autoCreateTime"`
}

func (Doctor) TableName() string {
	return "doctors"
}

type AccessToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"` // Always "bearer"
	ExpiresAt   time.Time `json:"expires_at"`
}

// Claims is what a verified bearer token tells us about the caller.
type Claims struct {
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
