package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/security"
)

var ErrOwnerPasswordRequired = errors.New("password is required to create a new owner")

type OwnerSeed struct {
	Email    string
	Username string
	Password string
}

type SeedReport struct {
	UserID   uint `json:"user_id"`
	Created  bool `json:"created"`
	Promoted bool `json:"promoted"`
	Noop     bool `json:"noop"`
}

// SeedOwner is the only path that grants the owner role. An existing account
// is promoted in place. A missing one is created with a local credential.
func SeedOwner(ctx context.Context, db *gorm.DB, hasher *security.PasswordHasher, in OwnerSeed) (*SeedReport, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, errors.New("owner email is required")
	}
	report := &SeedReport{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		err := tx.Where("email = ?", email).First(&u).Error
		switch {
		case err == nil:
			report.UserID = u.ID
			if u.Role == domain.RoleOwner {
				report.Noop = true
				return nil
			}
			report.Promoted = true
			return tx.Model(&domain.User{}).Where("id = ?", u.ID).Update("role", domain.RoleOwner).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if in.Password == "" {
			return ErrOwnerPasswordRequired
		}
		username := strings.TrimSpace(in.Username)
		if username == "" {
			username, _, _ = strings.Cut(email, "@")
		}
		u = domain.User{Username: username, Email: email, Role: domain.RoleOwner, Status: domain.UserStatusActive}
		if err := tx.Create(&u).Error; err != nil {
			return fmt.Errorf("create owner: %w", err)
		}
		hash, salt, err := hasher.NewCredential(in.Password)
		if err != nil {
			return err
		}
		if err := tx.Create(&domain.LocalCredential{UserID: u.ID, PasswordHash: hash, Salt: salt}).Error; err != nil {
			return fmt.Errorf("create owner credential: %w", err)
		}
		report.UserID = u.ID
		report.Created = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// PromoteBootstrapOwner promotes an already registered account at startup.
// It never creates users, so an unknown email is a no-op.
func PromoteBootstrapOwner(ctx context.Context, db *gorm.DB, email string) (*SeedReport, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return &SeedReport{Noop: true}, nil
	}
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SeedReport{Noop: true}, nil
		}
		return nil, err
	}
	return SeedOwner(ctx, db, nil, OwnerSeed{Email: email})
}
