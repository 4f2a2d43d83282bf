package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserDuplicate = errors.New("username or email already registered")
	// ErrOwnerImmutable is returned when a write targets an owner account.
	ErrOwnerImmutable = errors.New("owner account cannot be modified")
)

type UserListFilter struct {
	Email  string
	Role   domain.Role
	Status string
}

type UserRepository interface {
	FindByID(id uint) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	FindByUsername(username string) (*domain.User, error)
	FindByIDs(ids []uint) ([]domain.User, error)
	Create(user *domain.User) error
	// CreateWithCredential inserts user and its local credential atomically.
	CreateWithCredential(user *domain.User, cred *domain.LocalCredential) error
	Update(user *domain.User) error
	ListPaged(req PageRequest, filter UserListFilter) (PageResult[domain.User], error)
	// UpdateRole never touches owner accounts.
	UpdateRole(id uint, role domain.Role) error
	// BulkUpdateStatus never touches owner accounts.
	BulkUpdateStatus(ids []uint, status string) (int64, error)
	TouchLastLogin(id uint, at time.Time) error
	CountByRole(role domain.Role) (int64, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	return r.first("find_by_id", &u, r.db.Where("id = ?", id))
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	return r.first("find_by_email", &u, r.db.Where("email = ?", NormalizeEmail(email)))
}

func (r *GormUserRepository) FindByUsername(username string) (*domain.User, error) {
	var u domain.User
	return r.first("find_by_username", &u, r.db.Where("username = ?", strings.TrimSpace(username)))
}

func (r *GormUserRepository) first(op string, u *domain.User, q *gorm.DB) (*domain.User, error) {
	if err := q.First(u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", op, "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", op, "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", op, "success")
	return u, nil
}

func (r *GormUserRepository) FindByIDs(ids []uint) ([]domain.User, error) {
	users := []domain.User{}
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.Where("id IN ?", ids).Order("id asc").Find(&users).Error
	recordUserOp("find_by_ids", err)
	return users, err
}

func (r *GormUserRepository) Create(user *domain.User) error {
	user.Email = NormalizeEmail(user.Email)
	user.Username = strings.TrimSpace(user.Username)
	err := r.db.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = ErrUserDuplicate
	}
	recordUserOp("create", err)
	return err
}

func (r *GormUserRepository) CreateWithCredential(user *domain.User, cred *domain.LocalCredential) error {
	user.Email = NormalizeEmail(user.Email)
	user.Username = strings.TrimSpace(user.Username)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		cred.UserID = user.ID
		return tx.Create(cred).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = ErrUserDuplicate
	}
	if err != nil {
		user.ID = 0
	}
	recordUserOp("create_with_credential", err)
	return err
}

func (r *GormUserRepository) Update(user *domain.User) error {
	err := r.db.Save(user).Error
	recordUserOp("update", err)
	return err
}

func (r *GormUserRepository) ListPaged(req PageRequest, filter UserListFilter) (PageResult[domain.User], error) {
	req = req.normalize()
	base := r.db.Model(&domain.User{})
	if email := NormalizeEmail(filter.Email); email != "" {
		base = base.Where("email LIKE ?", "%"+email+"%")
	}
	if filter.Role != "" {
		base = base.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		base = base.Where("status = ?", filter.Status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		recordUserOp("list_paged", err)
		return PageResult[domain.User]{}, err
	}
	var users []domain.User
	if total > int64(req.offset()) {
		if err := base.Session(&gorm.Session{}).Order("id desc").Offset(req.offset()).Limit(req.PageSize).Find(&users).Error; err != nil {
			recordUserOp("list_paged", err)
			return PageResult[domain.User]{}, err
		}
	}
	recordUserOp("list_paged", nil)
	return newPageResult(req, users, total), nil
}

func (r *GormUserRepository) UpdateRole(id uint, role domain.Role) error {
	res := r.db.Model(&domain.User{}).Where("id = ? AND role <> ?", id, domain.RoleOwner).
		Updates(map[string]any{"role": role, "updated_at": time.Now().UTC()})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		var n int64
		if err = r.db.Model(&domain.User{}).Where("id = ?", id).Count(&n).Error; err == nil {
			err = ErrUserNotFound
			if n > 0 {
				err = ErrOwnerImmutable
			}
		}
	}
	recordUserOp("update_role", err)
	return err
}

func (r *GormUserRepository) BulkUpdateStatus(ids []uint, status string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.Model(&domain.User{}).
		Where("id IN ? AND role <> ?", ids, domain.RoleOwner).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	recordUserOp("bulk_update_status", res.Error)
	return res.RowsAffected, res.Error
}

func (r *GormUserRepository) TouchLastLogin(id uint, at time.Time) error {
	err := r.db.Model(&domain.User{}).Where("id = ?", id).Update("last_login_at", at.UTC()).Error
	recordUserOp("touch_last_login", err)
	return err
}

func (r *GormUserRepository) CountByRole(role domain.Role) (int64, error) {
	var n int64
	err := r.db.Model(&domain.User{}).Where("role = ?", role).Count(&n).Error
	recordUserOp("count_by_role", err)
	return n, err
}

func recordUserOp(op string, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, ErrUserNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "user", op, outcome)
}
