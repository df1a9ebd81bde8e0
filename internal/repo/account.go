package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oreoinsight/backoffice/internal/models"
)

// CreateAccountIfNew persists the account unless the email is already
// taken. The store's answer is authoritative: a single FirstOrCreate
// keyed on the email, RowsAffected == 0 means someone else holds it.
func (r *GormRepo) CreateAccountIfNew(ctx context.Context, a *models.Account) error {
	tx := r.DB.WithContext(ctx).Where("email = ?", a.Email).FirstOrCreate(a)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrDuplicateEmail
	}
	return nil
}

func (r *GormRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}
