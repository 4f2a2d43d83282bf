package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
)

var ErrCredentialNotFound = errors.New("local credential not found")

type LocalCredentialRepository interface {
	Create(credential *domain.LocalCredential) error
	FindByUserID(userID uint) (*domain.LocalCredential, error)
	// UpdatePassword replaces hash and salt together.
	UpdatePassword(userID uint, hash, salt string) error
}

type GormLocalCredentialRepository struct {
	db *gorm.DB
}

func NewLocalCredentialRepository(db *gorm.DB) LocalCredentialRepository {
	return &GormLocalCredentialRepository{db: db}
}

func (r *GormLocalCredentialRepository) Create(credential *domain.LocalCredential) error {
	err := r.db.Create(credential).Error
	recordCredentialOp("create", err)
	return err
}

func (r *GormLocalCredentialRepository) FindByUserID(userID uint) (*domain.LocalCredential, error) {
	var c domain.LocalCredential
	if err := r.db.Where("user_id = ?", userID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrCredentialNotFound
		}
		recordCredentialOp("find_by_user_id", err)
		return nil, err
	}
	recordCredentialOp("find_by_user_id", nil)
	return &c, nil
}

func (r *GormLocalCredentialRepository) UpdatePassword(userID uint, hash, salt string) error {
	res := r.db.Model(&domain.LocalCredential{}).Where("user_id = ?", userID).
		Updates(map[string]any{"password_hash": hash, "salt": salt, "updated_at": time.Now().UTC()})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrCredentialNotFound
	}
	recordCredentialOp("update_password", err)
	return err
}

func recordCredentialOp(op string, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, ErrCredentialNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "local_credential", op, outcome)
}
