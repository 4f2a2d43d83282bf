package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/repository"
)

const (
	maxBulkTargets       = 500
	notificationFanout   = 8
	maxNoticeSubjectSize = 200
	maxNoticeBodySize    = 4000
)

type NotifyResult struct {
	Requested int    `json:"requested"`
	Delivered int    `json:"delivered"`
	Failed    []uint `json:"failed,omitempty"`
	Missing   []uint `json:"missing,omitempty"`
}

type UserService struct {
	userRepo repository.UserRepository
	notifier Notifier
}

func NewUserService(userRepo repository.UserRepository, notifier Notifier) *UserService {
	return &UserService{userRepo: userRepo, notifier: notifier}
}

func (s *UserService) GetByID(id uint) (*domain.User, error) {
	return s.userRepo.FindByID(id)
}

func (s *UserService) List(ctx context.Context, req repository.PageRequest, filter repository.UserListFilter) (repository.PageResult[domain.User], error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return repository.PageResult[domain.User]{}, ErrInvalidRole
	}
	if filter.Status != "" && !validStatus(filter.Status) {
		return repository.PageResult[domain.User]{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	page, err := s.userRepo.ListPaged(req, filter)
	if err != nil {
		return page, err
	}
	observability.RecordAdminListPageSize(ctx, "users", page.PageSize)
	return page, nil
}

// BulkUpdateStatus activates or suspends the given users. Owner accounts are
// skipped by the repository, so the returned count may be lower than len(ids).
func (s *UserService) BulkUpdateStatus(ctx context.Context, ids []uint, status string) (int64, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !validStatus(status) {
		return 0, fmt.Errorf("%w: status must be active or suspended", ErrInvalidInput)
	}
	ids = dedupeIDs(ids)
	if len(ids) == 0 || len(ids) > maxBulkTargets {
		return 0, fmt.Errorf("%w: between 1 and %d user ids required", ErrInvalidInput, maxBulkTargets)
	}
	n, err := s.userRepo.BulkUpdateStatus(ids, status)
	if err != nil {
		return 0, err
	}
	observability.RecordBulkStatusCount(ctx, status, n)
	return n, nil
}

// Notify delivers one notice per user with bounded concurrency. Delivery
// failures are reported per user and do not abort the batch.
func (s *UserService) Notify(ctx context.Context, ids []uint, subject, body string) (NotifyResult, error) {
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	if subject == "" || len(subject) > maxNoticeSubjectSize || body == "" || len(body) > maxNoticeBodySize {
		return NotifyResult{}, fmt.Errorf("%w: subject and body are required", ErrInvalidInput)
	}
	ids = dedupeIDs(ids)
	if len(ids) == 0 || len(ids) > maxBulkTargets {
		return NotifyResult{}, fmt.Errorf("%w: between 1 and %d user ids required", ErrInvalidInput, maxBulkTargets)
	}
	users, err := s.userRepo.FindByIDs(ids)
	if err != nil {
		return NotifyResult{}, err
	}

	res := NotifyResult{Requested: len(ids)}
	found := make(map[uint]struct{}, len(users))
	for _, u := range users {
		found[u.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			res.Missing = append(res.Missing, id)
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(notificationFanout)
	for _, u := range users {
		g.Go(func() error {
			err := s.notifier.SendNotice(gctx, Notice{UserID: u.ID, Email: u.Email, Subject: subject, Body: body})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				observability.RecordNotificationDelivery(gctx, "notice", "error")
				res.Failed = append(res.Failed, u.ID)
				return nil
			}
			observability.RecordNotificationDelivery(gctx, "notice", "success")
			res.Delivered++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	slices.Sort(res.Failed)
	return res, ctx.Err()
}

func validStatus(status string) bool {
	return status == domain.UserStatusActive || status == domain.UserStatusSuspended
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
