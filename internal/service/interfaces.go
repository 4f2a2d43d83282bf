package service

import (
	"context"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/repository"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (*LoginResult, error)
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	GoogleLoginURL(state string) string
	LoginWithGoogle(ctx context.Context, code string) (*LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) (*OTPIssue, error)
	ResetPassword(ctx context.Context, ticket, code, newPassword string) error
	ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error
	ParseUserID(subject string) (uint, error)
}

type UserServiceInterface interface {
	GetByID(id uint) (*domain.User, error)
	List(ctx context.Context, req repository.PageRequest, filter repository.UserListFilter) (repository.PageResult[domain.User], error)
	BulkUpdateStatus(ctx context.Context, ids []uint, status string) (int64, error)
	Notify(ctx context.Context, ids []uint, subject, body string) (NotifyResult, error)
}

type RoleServiceInterface interface {
	Reassign(ctx context.Context, actor Actor, targetID uint, newRole string) (*domain.User, error)
}

type UploadServiceInterface interface {
	Create(ctx context.Context, in UploadInput) (*domain.Upload, error)
	ListApproved(ctx context.Context, subject string) ([]UploadView, error)
	ListPending(ctx context.Context, subject string) ([]domain.Upload, error)
	Moderate(ctx context.Context, actor Actor, id, decision, reason string) (*domain.Upload, error)
}
