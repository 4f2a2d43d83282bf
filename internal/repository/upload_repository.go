package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
)

var (
	ErrUploadNotFound     = errors.New("upload not found")
	ErrUploadNotPending   = errors.New("upload is not pending moderation")
	ErrUploadAlreadyExist = errors.New("upload already exists")
)

var uploadBucket = []byte("uploads")

type UploadRepository interface {
	Create(upload *domain.Upload) error
	FindByID(id string) (*domain.Upload, error)
	ListByStatus(status domain.UploadStatus, subject string) ([]domain.Upload, error)
	// Moderate moves a pending upload to approved or rejected and returns the
	// updated record.
	Moderate(id string, to domain.UploadStatus, moderatorID uint, reason string) (*domain.Upload, error)
}

type BoltUploadRepository struct {
	db  *bbolt.DB
	now func() time.Time
}

func NewUploadRepository(db *bbolt.DB) (UploadRepository, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(uploadBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create uploads bucket: %w", err)
	}
	return &BoltUploadRepository{db: db, now: time.Now}, nil
}

func (r *BoltUploadRepository) Create(upload *domain.Upload) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(uploadBucket)
		if b.Get([]byte(upload.ID)) != nil {
			return ErrUploadAlreadyExist
		}
		data, err := json.Marshal(upload)
		if err != nil {
			return err
		}
		return b.Put([]byte(upload.ID), data)
	})
	recordUploadRepoOp("create", err)
	return err
}

func (r *BoltUploadRepository) FindByID(id string) (*domain.Upload, error) {
	var out domain.Upload
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(uploadBucket).Get([]byte(id))
		if data == nil {
			return ErrUploadNotFound
		}
		return json.Unmarshal(data, &out)
	})
	recordUploadRepoOp("find_by_id", err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByStatus returns uploads oldest first. An empty subject matches all.
func (r *BoltUploadRepository) ListByStatus(status domain.UploadStatus, subject string) ([]domain.Upload, error) {
	subject = strings.TrimSpace(strings.ToLower(subject))
	out := []domain.Upload{}
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(uploadBucket).ForEach(func(_, v []byte) error {
			var u domain.Upload
			if err := json.Unmarshal(v, &u); err != nil {
				return err
			}
			if u.Status != status {
				return nil
			}
			if subject != "" && strings.ToLower(u.Subject) != subject {
				return nil
			}
			out = append(out, u)
			return nil
		})
	})
	recordUploadRepoOp("list_by_status", err)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *BoltUploadRepository) Moderate(id string, to domain.UploadStatus, moderatorID uint, reason string) (*domain.Upload, error) {
	var out domain.Upload
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(uploadBucket)
		data := b.Get([]byte(id))
		if data == nil {
			return ErrUploadNotFound
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return err
		}
		if out.Status != domain.UploadPending {
			return ErrUploadNotPending
		}
		now := r.now().UTC()
		out.Status = to
		out.ModeratedBy = moderatorID
		out.Reason = reason
		out.ModeratedAt = &now
		updated, err := json.Marshal(out)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), updated)
	})
	recordUploadRepoOp("moderate", err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func recordUploadRepoOp(op string, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, ErrUploadNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	observability.RecordRepositoryOperation(context.Background(), "upload", op, outcome)
}
