package domain

import "time"

type UploadStatus string

const (
	UploadPending  UploadStatus = "pending"
	UploadApproved UploadStatus = "approved"
	UploadRejected UploadStatus = "rejected"
)

type Upload struct {
	ID          string       `json:"id"`
	OwnerID     uint         `json:"owner_id"`
	Subject     string       `json:"subject"`
	Title       string       `json:"title"`
	ObjectKey   string       `json:"object_key"`
	ContentType string       `json:"content_type"`
	Size        int64        `json:"size"`
	Status      UploadStatus `json:"status"`
	ModeratedBy uint         `json:"moderated_by,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	ModeratedAt *time.Time   `json:"moderated_at,omitempty"`
}
