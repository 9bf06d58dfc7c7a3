package repo

import (
	"errors"

	"gorm.io/gorm"
)

// ErrVersionConflict is the typed signal for a lost optimistic-lock race:
// the conditional write matched no row because the version moved underneath us.
var ErrVersionConflict = errors.New("version conflict")

type GormRepo struct {
	DB *gorm.DB
}
