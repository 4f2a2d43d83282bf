package repository

import (
	"errors"
	"testing"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
)

func TestOAuthRepositoryLinkAndLookup(t *testing.T) {
	db := newRepositoryDBForTest(t)
	users := seedUsers(t, NewUserRepository(db), domain.RoleStudent, domain.RoleStudent)
	repo := NewOAuthRepository(db)

	if _, err := repo.FindByProvider("google", "sub-1"); !errors.Is(err, ErrOAuthAccountNotFound) {
		t.Fatalf("expected ErrOAuthAccountNotFound, got %v", err)
	}
	acct := &domain.OAuthAccount{UserID: users[0].ID, Provider: " Google ", ProviderUserID: "sub-1", Email: "User0@Uni.edu"}
	if err := repo.Create(acct); err != nil {
		t.Fatalf("create: %v", err)
	}
	if acct.Provider != "google" || acct.Email != "user0@uni.edu" {
		t.Fatalf("expected normalized account, got %+v", acct)
	}

	got, err := repo.FindByProvider("GOOGLE", "sub-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.UserID != users[0].ID {
		t.Fatalf("expected user %d, got %d", users[0].ID, got.UserID)
	}

	dup := &domain.OAuthAccount{UserID: users[1].ID, Provider: "google", ProviderUserID: "sub-1"}
	if err := repo.Create(dup); !errors.Is(err, ErrOAuthAccountLinked) {
		t.Fatalf("expected ErrOAuthAccountLinked, got %v", err)
	}
	if _, err := repo.FindByProvider("google", ""); !errors.Is(err, ErrOAuthAccountNotFound) {
		t.Fatalf("expected empty subject to miss, got %v", err)
	}
}
