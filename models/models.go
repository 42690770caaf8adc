package models

import (
	"strings"
	"time"
)

type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null;unique" json:"email"`
	Grams     []Gram    `json:"grams,omitempty"`
}

type Gram struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	// Photo is the storage key of the uploaded picture.
	Photo    string    `gorm:"size:512" json:"-"`
	PhotoURL string    `gorm:"-" json:"photo_url,omitempty"`
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	User     *User     `json:"user,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Comments []Comment `json:"comments" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

type Comment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `json:"user,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	GramID    uint      `gorm:"not null;index" json:"gram_id"`
}

// FieldErrors maps a field name to its validation messages.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

const msgBlank = "can't be blank"

// Validate checks the gram's own fields. requirePhoto selects the strict
// variant where a gram without a stored photo is invalid.
func (g *Gram) Validate(requirePhoto bool) FieldErrors {
	errs := FieldErrors{}
	if blank(g.Message) {
		errs.Add("message", msgBlank)
	}
	if requirePhoto && blank(g.Photo) {
		errs.Add("photo", msgBlank)
	}
	return errs
}

func (c *Comment) Validate() FieldErrors {
	errs := FieldErrors{}
	if blank(c.Message) {
		errs.Add("message", msgBlank)
	}
	return errs
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
