package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/campus-portal-backend/internal/config"
	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/repository"
)

const (
	uploadPathPrefix  = "uploads"
	sniffLen          = 512
	maxUploadTitleLen = 200
)

var (
	ErrFileTooLarge        = errors.New("file exceeds the upload size limit")
	ErrUnsupportedFileType = errors.New("unsupported file type, only PDF, PNG, JPEG and plain text are allowed")
	ErrUploadNotFound      = repository.ErrUploadNotFound
	ErrUploadNotPending    = repository.ErrUploadNotPending

	subjectRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

	allowedUploadTypes = map[string]string{
		"application/pdf": ".pdf",
		"image/png":       ".png",
		"image/jpeg":      ".jpg",
		"text/plain":      ".txt",
	}
)

type UploadInput struct {
	OwnerID uint
	Subject string
	Title   string
	Size    int64
	Body    io.Reader
}

// UploadView is an approved upload with a short-lived download URL.
type UploadView struct {
	domain.Upload
	URL string `json:"url,omitempty"`
}

type UploadService struct {
	repo     repository.UploadRepository
	storage  ObjectStorage
	maxBytes int64
	now      func() time.Time
}

func NewUploadService(cfg *config.Config, repo repository.UploadRepository, storage ObjectStorage) *UploadService {
	return &UploadService{repo: repo, storage: storage, maxBytes: cfg.UploadMaxBytes, now: time.Now}
}

// Create sniffs the content type from the leading bytes, stores the blob and
// records the upload as pending moderation.
func (s *UploadService) Create(ctx context.Context, in UploadInput) (*domain.Upload, error) {
	subject := normalizeSubject(in.Subject)
	title := strings.TrimSpace(in.Title)
	if !subjectRe.MatchString(subject) {
		return nil, fmt.Errorf("%w: subject must be 1-64 characters of a-z, 0-9, '_' or '-'", ErrInvalidInput)
	}
	if title == "" || len(title) > maxUploadTitleLen {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Size <= 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if in.Size > s.maxBytes {
		observability.RecordUploadEvent(ctx, "create", "too_large")
		return nil, ErrFileTooLarge
	}

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Body, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("%w: read file: %v", ErrStoreObjectFailed, err)
	}
	buf = buf[:n]
	contentType := sniffContentType(buf)
	ext, ok := allowedUploadTypes[contentType]
	if !ok {
		observability.RecordUploadEvent(ctx, "create", "rejected_type")
		return nil, ErrUnsupportedFileType
	}

	id := uuid.NewString()
	upload := &domain.Upload{
		ID:          id,
		OwnerID:     in.OwnerID,
		Subject:     subject,
		Title:       title,
		ObjectKey:   fmt.Sprintf("%s/%s/%s%s", uploadPathPrefix, subject, id, ext),
		ContentType: contentType,
		Size:        in.Size,
		Status:      domain.UploadPending,
		CreatedAt:   s.now().UTC(),
	}
	meta := map[string]string{
		"Owner-ID":    strconv.FormatUint(uint64(in.OwnerID), 10),
		"Uploaded-At": upload.CreatedAt.Format(time.RFC3339),
	}
	body := io.MultiReader(bytes.NewReader(buf), in.Body)
	if err := s.storage.Put(ctx, upload.ObjectKey, body, in.Size, contentType, meta); err != nil {
		observability.RecordUploadEvent(ctx, "create", "storage_error")
		return nil, err
	}
	if err := s.repo.Create(upload); err != nil {
		_ = s.storage.Remove(ctx, upload.ObjectKey)
		observability.RecordUploadEvent(ctx, "create", "error")
		return nil, err
	}
	observability.RecordUploadEvent(ctx, "create", "success")
	observability.RecordUploadSize(ctx, contentType, in.Size)
	return upload, nil
}

func (s *UploadService) ListApproved(ctx context.Context, subject string) ([]UploadView, error) {
	uploads, err := s.repo.ListByStatus(domain.UploadApproved, normalizeSubject(subject))
	if err != nil {
		return nil, err
	}
	out := make([]UploadView, 0, len(uploads))
	for _, u := range uploads {
		link, err := s.storage.PresignGet(ctx, u.ObjectKey)
		if err != nil {
			return nil, err
		}
		out = append(out, UploadView{Upload: u, URL: link})
	}
	return out, nil
}

func (s *UploadService) ListPending(_ context.Context, subject string) ([]domain.Upload, error) {
	return s.repo.ListByStatus(domain.UploadPending, normalizeSubject(subject))
}

// Moderate approves or rejects a pending upload. Rejection removes the blob.
func (s *UploadService) Moderate(ctx context.Context, actor Actor, id, decision, reason string) (*domain.Upload, error) {
	if !actor.Role.AllowedBy(domain.RoleAdmin, domain.RoleOwner) {
		return nil, ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	var to domain.UploadStatus
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "approve", "approved":
		to = domain.UploadApproved
	case "reject", "rejected":
		if reason == "" {
			return nil, fmt.Errorf("%w: a reason is required to reject", ErrInvalidInput)
		}
		to = domain.UploadRejected
	default:
		return nil, fmt.Errorf("%w: decision must be approve or reject", ErrInvalidInput)
	}

	upload, err := s.repo.Moderate(id, to, actor.UserID, reason)
	if err != nil {
		observability.RecordUploadEvent(ctx, "moderate", "error")
		return nil, err
	}
	if to == domain.UploadRejected {
		// TODO: sweep objects orphaned when this removal fails.
		if err := s.storage.Remove(ctx, upload.ObjectKey); err != nil {
			observability.RecordUploadEvent(ctx, "remove_object", "error")
		}
	}
	observability.RecordUploadEvent(ctx, "moderate", string(to))
	return upload, nil
}

func sniffContentType(head []byte) string {
	ct := http.DetectContentType(head)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func normalizeSubject(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
