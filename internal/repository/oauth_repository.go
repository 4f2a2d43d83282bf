package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
)

var (
	ErrOAuthAccountNotFound = errors.New("oauth account not found")
	// ErrOAuthAccountLinked means the provider subject already belongs to a user.
	ErrOAuthAccountLinked = errors.New("oauth account already linked")
)

// OAuthRepository maps federated provider subjects to campus users.
type OAuthRepository interface {
	FindByProvider(provider, providerUserID string) (*domain.OAuthAccount, error)
	Create(account *domain.OAuthAccount) error
}

type GormOAuthRepository struct{ db *gorm.DB }

func NewOAuthRepository(db *gorm.DB) OAuthRepository { return &GormOAuthRepository{db: db} }

func (r *GormOAuthRepository) FindByProvider(provider, providerUserID string) (*domain.OAuthAccount, error) {
	provider = normalizeProvider(provider)
	if provider == "" || providerUserID == "" {
		recordOAuthOp("find", ErrOAuthAccountNotFound)
		return nil, ErrOAuthAccountNotFound
	}
	var acct domain.OAuthAccount
	err := r.db.Where(&domain.OAuthAccount{Provider: provider, ProviderUserID: providerUserID}).Take(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrOAuthAccountNotFound
	}
	recordOAuthOp("find", err)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (r *GormOAuthRepository) Create(account *domain.OAuthAccount) error {
	account.Provider = normalizeProvider(account.Provider)
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	err := r.db.Create(account).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = ErrOAuthAccountLinked
	}
	recordOAuthOp("create", err)
	return err
}

func normalizeProvider(p string) string { return strings.ToLower(strings.TrimSpace(p)) }

func recordOAuthOp(op string, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, ErrOAuthAccountNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrOAuthAccountLinked):
		outcome = "conflict"
	case err != nil:
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "oauth_account", op, outcome)
}
