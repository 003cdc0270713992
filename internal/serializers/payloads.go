package serializers

import (
	"regexp"
	"strings"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

const (
	MsgInvalidUsername = "Enter a valid username. It may contain only letters, numbers, and @/./+/-/_ characters."
	MsgInvalidSlug     = "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
)

// UserWrite is the registration payload. Shape rules live in the binding tags;
// Validate adds the rules tags cannot express.
type UserWrite struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
}

func (w *UserWrite) Validate() error {
	errs := FieldErrors{}
	w.Email = strings.TrimSpace(w.Email)
	if !usernamePattern.MatchString(w.Username) {
		errs.Add("username", MsgInvalidUsername)
	}
	return errs.Err()
}

// PasswordWrite changes the password of the current user
type PasswordWrite struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
}

// AvatarWrite carries a base64 data URI
type AvatarWrite struct {
	Avatar string `json:"avatar" binding:"required"`
}

// LoginWrite is the token login payload
type LoginWrite struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TagWrite and IngredientWrite are used by staff to extend the catalog
type TagWrite struct {
	Name string `json:"name" binding:"required,max=32"`
	Slug string `json:"slug" binding:"required,max=32"`
}

func (w *TagWrite) Validate() error {
	errs := FieldErrors{}
	if !slugPattern.MatchString(w.Slug) {
		errs.Add("slug", MsgInvalidSlug)
	}
	return errs.Err()
}

type IngredientWrite struct {
	Name            string `json:"name" binding:"required,max=128"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=64"`
}
