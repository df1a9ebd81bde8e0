package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type GormRepo struct {
	DB *gorm.DB
}
