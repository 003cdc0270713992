package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a registered account. Email is the login identifier.
type User struct {
	ID        uint     `gorm:"primaryKey"`
	Email     string   `gorm:"size:254;uniqueIndex;not null"`
	Username  string   `gorm:"size:150;uniqueIndex;not null"`
	FirstName string   `gorm:"size:150;not null"`
	LastName  string   `gorm:"size:150;not null"`
	Password  string   `gorm:"not null"`
	Avatar    string
	IsStaff   bool     `gorm:"default:false"`
	Recipes   []Recipe `gorm:"foreignKey:AuthorID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role maps the staff flag onto the roles carried in access tokens
func (u *User) Role() string {
	if u.IsStaff {
		return "admin"
	}
	return "user"
}

// SetPassword stores the bcrypt hash of raw
func (u *User) SetPassword(raw string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether raw matches the stored hash
func (u *User) CheckPassword(raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(raw)) == nil
}
