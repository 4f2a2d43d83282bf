package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
)

func seedUsers(t *testing.T, repo UserRepository, roles ...domain.Role) []*domain.User {
	t.Helper()
	out := make([]*domain.User, 0, len(roles))
	for i, role := range roles {
		u := &domain.User{
			Username: fmt.Sprintf("user%d", i),
			Email:    fmt.Sprintf("User%d@Uni.edu", i),
			Role:     role,
			Status:   domain.UserStatusActive,
		}
		if err := repo.Create(u); err != nil {
			t.Fatalf("create user %d: %v", i, err)
		}
		out = append(out, u)
	}
	return out
}

func TestUserRepositoryLookupsAndDuplicates(t *testing.T) {
	repo := NewUserRepository(newRepositoryDBForTest(t))
	users := seedUsers(t, repo, domain.RoleStudent)

	byEmail, err := repo.FindByEmail("  USER0@uni.edu ")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != users[0].ID || byEmail.Email != "user0@uni.edu" {
		t.Fatalf("unexpected user: %+v", byEmail)
	}
	byName, err := repo.FindByUsername("user0")
	if err != nil || byName.ID != users[0].ID {
		t.Fatalf("find by username: %+v %v", byName, err)
	}
	if _, err := repo.FindByID(999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	dupe := &domain.User{Username: "other", Email: "user0@uni.edu", Role: domain.RoleStudent, Status: domain.UserStatusActive}
	if err := repo.Create(dupe); !errors.Is(err, ErrUserDuplicate) {
		t.Fatalf("expected ErrUserDuplicate, got %v", err)
	}
}

func TestUserRepositoryListPagedWithFilters(t *testing.T) {
	repo := NewUserRepository(newRepositoryDBForTest(t))
	seedUsers(t, repo, domain.RoleStudent, domain.RoleStudent, domain.RoleAdmin, domain.RoleOwner)

	page, err := repo.ListPaged(PageRequest{Page: 1, PageSize: 2}, UserListFilter{})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if page.Total != 4 || page.TotalPages != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page result: %+v", page)
	}
	if page.Items[0].Username != "user3" {
		t.Fatalf("expected newest first, got %s", page.Items[0].Username)
	}

	students, err := repo.ListPaged(PageRequest{}, UserListFilter{Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("list students: %v", err)
	}
	if students.Total != 2 || students.PageSize != DefaultPageSize {
		t.Fatalf("unexpected student page: %+v", students)
	}

	byEmail, err := repo.ListPaged(PageRequest{PageSize: 500}, UserListFilter{Email: "user2@"})
	if err != nil {
		t.Fatalf("list by email: %v", err)
	}
	if byEmail.Total != 1 || byEmail.PageSize != MaxPageSize {
		t.Fatalf("unexpected email filter page: %+v", byEmail)
	}
}

func TestUserRepositoryRoleAndStatusUpdates(t *testing.T) {
	repo := NewUserRepository(newRepositoryDBForTest(t))
	users := seedUsers(t, repo, domain.RoleStudent, domain.RoleAdmin, domain.RoleOwner)

	if err := repo.UpdateRole(users[0].ID, domain.RoleAdmin); err != nil {
		t.Fatalf("update role: %v", err)
	}
	if err := repo.UpdateRole(999, domain.RoleAdmin); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := repo.UpdateRole(users[2].ID, domain.RoleStudent); !errors.Is(err, ErrOwnerImmutable) {
		t.Fatalf("expected ErrOwnerImmutable, got %v", err)
	}
	admins, err := repo.CountByRole(domain.RoleAdmin)
	if err != nil || admins != 2 {
		t.Fatalf("expected 2 admins, got %d (%v)", admins, err)
	}

	ids := []uint{users[0].ID, users[1].ID, users[2].ID}
	n, err := repo.BulkUpdateStatus(ids, domain.UserStatusSuspended)
	if err != nil {
		t.Fatalf("bulk update: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected owner to be skipped, affected=%d", n)
	}
	owner, err := repo.FindByID(users[2].ID)
	if err != nil {
		t.Fatalf("find owner: %v", err)
	}
	if owner.Status != domain.UserStatusActive {
		t.Fatalf("owner status changed to %s", owner.Status)
	}

	found, err := repo.FindByIDs(ids)
	if err != nil || len(found) != 3 {
		t.Fatalf("find by ids: %d %v", len(found), err)
	}

	at := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	if err := repo.TouchLastLogin(users[0].ID, at); err != nil {
		t.Fatalf("touch last login: %v", err)
	}
	reloaded, _ := repo.FindByID(users[0].ID)
	if reloaded.LastLoginAt == nil || !reloaded.LastLoginAt.Equal(at) {
		t.Fatalf("unexpected last login: %v", reloaded.LastLoginAt)
	}
}

func TestLocalCredentialRepository(t *testing.T) {
	db := newRepositoryDBForTest(t)
	users := seedUsers(t, NewUserRepository(db), domain.RoleStudent)
	repo := NewLocalCredentialRepository(db)

	if err := repo.Create(&domain.LocalCredential{UserID: users[0].ID, PasswordHash: "h1", Salt: "s1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.UpdatePassword(users[0].ID, "h2", "s2"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	cred, err := repo.FindByUserID(users[0].ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if cred.PasswordHash != "h2" || cred.Salt != "s2" {
		t.Fatalf("expected rotated hash and salt, got %+v", cred)
	}
	if _, err := repo.FindByUserID(999); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}
	if err := repo.UpdatePassword(999, "h", "s"); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound on update, got %v", err)
	}
}

func TestOAuthRepository(t *testing.T) {
	repo := NewOAuthRepository(newRepositoryDBForTest(t))
	if err := repo.Create(&domain.OAuthAccount{UserID: 1, Provider: "google", ProviderUserID: "g-1", Email: "a@uni.edu"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.FindByProvider("google", "g-1")
	if err != nil || got.UserID != 1 {
		t.Fatalf("find: %+v %v", got, err)
	}
	if _, err := repo.FindByProvider("google", "missing"); !errors.Is(err, ErrOAuthAccountNotFound) {
		t.Fatalf("expected ErrOAuthAccountNotFound, got %v", err)
	}
}

func TestUserRepositoryCreateWithCredential(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)
	creds := NewLocalCredentialRepository(db)

	u := &domain.User{Username: "jo", Email: "Jo@Uni.edu", Role: domain.RoleStudent, Status: domain.UserStatusActive}
	if err := repo.CreateWithCredential(u, &domain.LocalCredential{PasswordHash: "ab", Salt: "cd"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	cred, err := creds.FindByUserID(u.ID)
	if err != nil || cred.Salt != "cd" {
		t.Fatalf("expected credential for user %d, got %+v (%v)", u.ID, cred, err)
	}

	dup := &domain.User{Username: "jo2", Email: "jo@uni.edu", Role: domain.RoleStudent, Status: domain.UserStatusActive}
	if err := repo.CreateWithCredential(dup, &domain.LocalCredential{PasswordHash: "ab", Salt: "cd"}); !errors.Is(err, ErrUserDuplicate) {
		t.Fatalf("expected ErrUserDuplicate, got %v", err)
	}
}

func TestUserRepositoryCreateWithCredentialRollsBack(t *testing.T) {
	db := newRepositoryDBForTest(t)
	if err := db.Migrator().DropTable(&domain.LocalCredential{}); err != nil {
		t.Fatalf("drop credentials: %v", err)
	}
	repo := NewUserRepository(db)

	u := &domain.User{Username: "kai", Email: "kai@uni.edu", Role: domain.RoleStudent, Status: domain.UserStatusActive}
	if err := repo.CreateWithCredential(u, &domain.LocalCredential{PasswordHash: "ab", Salt: "cd"}); err == nil {
		t.Fatal("expected credential insert to fail")
	}
	if u.ID != 0 {
		t.Fatalf("expected id reset after rollback, got %d", u.ID)
	}
	if _, err := repo.FindByEmail("kai@uni.edu"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user insert rolled back, got %v", err)
	}
}
