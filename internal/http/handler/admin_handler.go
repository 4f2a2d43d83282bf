package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/http/response"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/repository"
	"github.com/sandeepkv93/campus-portal-backend/internal/service"
)

type AdminHandler struct {
	userSvc   service.UserServiceInterface
	roleSvc   service.RoleServiceInterface
	uploadSvc service.UploadServiceInterface
}

func NewAdminHandler(userSvc service.UserServiceInterface, roleSvc service.RoleServiceInterface, uploadSvc service.UploadServiceInterface) *AdminHandler {
	return &AdminHandler{userSvc: userSvc, roleSvc: roleSvc, uploadSvc: uploadSvc}
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type bulkStatusRequest struct {
	UserIDs []uint `json:"user_ids"`
	Status  string `json:"status"`
}

type notifyRequest struct {
	UserIDs []uint `json:"user_ids"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type moderateRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAdminListRequestDuration(r.Context(), "users", status, time.Since(start))
	}()

	pageReq, err := parsePageRequest(r)
	if err != nil {
		status = "rejected"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	q := r.URL.Query()
	filter := repository.UserListFilter{
		Email:  strings.TrimSpace(q.Get("email")),
		Role:   domain.Role(strings.ToLower(strings.TrimSpace(q.Get("role")))),
		Status: strings.ToLower(strings.TrimSpace(q.Get("status"))),
	}
	page, err := h.userSvc.List(r.Context(), pageReq, filter)
	if err != nil {
		status = errorStatus(err)
		writeServiceError(w, r, err, "failed to list users")
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(page.Items, page.Page, page.PageSize, page.Total, page.TotalPages))
}

func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	targetID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	updated, err := h.roleSvc.Reassign(r.Context(), actor, targetID, req.Role)
	if err != nil {
		observability.Audit(r, "admin.user.role", "outcome", "failure", "actor_id", actor.UserID, "target_user_id", targetID, "reason", errorStatus(err))
		writeServiceError(w, r, err, "failed to update role")
		return
	}
	observability.Audit(r, "admin.user.role", "outcome", "success", "actor_id", actor.UserID, "target_user_id", targetID, "role", updated.Role)
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *AdminHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	var req bulkStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	n, err := h.userSvc.BulkUpdateStatus(r.Context(), req.UserIDs, req.Status)
	if err != nil {
		writeServiceError(w, r, err, "failed to update status")
		return
	}
	observability.Audit(r, "admin.user.status", "outcome", "success", "actor_id", actor.UserID, "status", req.Status, "requested", len(req.UserIDs), "updated", n)
	response.JSON(w, r, http.StatusOK, map[string]any{"updated": n, "status": strings.ToLower(strings.TrimSpace(req.Status))})
}

func (h *AdminHandler) Notify(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	var req notifyRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	res, err := h.userSvc.Notify(r.Context(), req.UserIDs, req.Subject, req.Body)
	if err != nil {
		writeServiceError(w, r, err, "failed to send notifications")
		return
	}
	observability.Audit(r, "admin.notify", "outcome", "success", "actor_id", actor.UserID, "delivered", res.Delivered, "failed", len(res.Failed))
	response.JSON(w, r, http.StatusOK, res)
}

func (h *AdminHandler) ListPendingUploads(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAdminListRequestDuration(r.Context(), "pending_uploads", status, time.Since(start))
	}()

	items, err := h.uploadSvc.ListPending(r.Context(), r.URL.Query().Get("subject"))
	if err != nil {
		status = errorStatus(err)
		writeServiceError(w, r, err, "failed to list uploads")
		return
	}
	if items == nil {
		items = []domain.Upload{}
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"items": items})
}

func (h *AdminHandler) ModerateUpload(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	var req moderateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	upload, err := h.uploadSvc.Moderate(r.Context(), actor, id, req.Decision, req.Reason)
	if err != nil {
		observability.Audit(r, "admin.upload.moderate", "outcome", "failure", "actor_id", actor.UserID, "upload_id", id, "reason", errorStatus(err))
		writeServiceError(w, r, err, "failed to moderate upload")
		return
	}
	observability.Audit(r, "admin.upload.moderate", "outcome", "success", "actor_id", actor.UserID, "upload_id", id, "status", upload.Status)
	response.JSON(w, r, http.StatusOK, upload)
}
