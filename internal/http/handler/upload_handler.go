package handler

import (
	"net/http"

	"github.com/sandeepkv93/campus-portal-backend/internal/http/middleware"
	"github.com/sandeepkv93/campus-portal-backend/internal/http/response"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/service"
)

const multipartMemory = 1 << 20

type UploadHandler struct {
	uploadSvc service.UploadServiceInterface
	maxBytes  int64
}

func NewUploadHandler(uploadSvc service.UploadServiceInterface, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploadSvc: uploadSvc, maxBytes: maxBytes}
}

// MaxRequestBytes leaves room for the multipart envelope around the file.
func (h *UploadHandler) MaxRequestBytes() int64 { return h.maxBytes + multipartMemory }

func (h *UploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if middleware.IsBodyTooLarge(err) {
			writeServiceError(w, r, service.ErrFileTooLarge, "")
			return
		}
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "expected multipart form with a file field", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "file is required", nil)
		return
	}
	defer file.Close()

	upload, err := h.uploadSvc.Create(r.Context(), service.UploadInput{
		OwnerID: actor.UserID,
		Subject: r.FormValue("subject"),
		Title:   r.FormValue("title"),
		Size:    header.Size,
		Body:    file,
	})
	if err != nil {
		observability.Audit(r, "upload.create", "outcome", "failure", "user_id", actor.UserID, "reason", errorStatus(err))
		writeServiceError(w, r, err, "failed to store upload")
		return
	}
	observability.Audit(r, "upload.create", "outcome", "success", "user_id", actor.UserID, "upload_id", upload.ID)
	response.JSON(w, r, http.StatusCreated, upload)
}

func (h *UploadHandler) ListApproved(w http.ResponseWriter, r *http.Request) {
	items, err := h.uploadSvc.ListApproved(r.Context(), r.URL.Query().Get("subject"))
	if err != nil {
		writeServiceError(w, r, err, "failed to list uploads")
		return
	}
	if items == nil {
		items = []service.UploadView{}
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"items": items})
}
