package handler

import (
	"net/http"

	"github.com/sandeepkv93/campus-portal-backend/internal/http/response"
	"github.com/sandeepkv93/campus-portal-backend/internal/service"
)

type UserHandler struct {
	userSvc service.UserServiceInterface
}

func NewUserHandler(userSvc service.UserServiceInterface) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// Me returns the stored profile, so role and status reflect changes made after
// the session was issued.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	u, err := h.userSvc.GetByID(actor.UserID)
	if err != nil {
		writeServiceError(w, r, err, "failed to load profile")
		return
	}
	response.JSON(w, r, http.StatusOK, u)
}
