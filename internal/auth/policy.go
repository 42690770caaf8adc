package auth

import (
	"errors"

	"github.com/petermazzocco/grams/models"
)

var ErrForbidden = errors.New("forbidden")

// Authorize allows only the owner of a gram to change it.
func Authorize(user *models.User, gram *models.Gram) error {
	if user == nil || gram == nil || user.ID == 0 || user.ID != gram.UserID {
		return ErrForbidden
	}
	return nil
}
