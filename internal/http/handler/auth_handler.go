package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/sandeepkv93/campus-portal-backend/internal/http/middleware"
	"github.com/sandeepkv93/campus-portal-backend/internal/http/response"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/security"
	"github.com/sandeepkv93/campus-portal-backend/internal/service"
)

type AuthHandler struct {
	authSvc   service.AuthServiceInterface
	cookieMgr *security.CookieManager
	stateKey  string
}

func NewAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, stateKey string) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookieMgr: cookieMgr, stateKey: stateKey}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Ticket   string `json:"ticket"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		status = "rejected"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	result, err := h.authSvc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		status = errorStatus(err)
		observability.Audit(r, "auth.local.register", "outcome", "failure", "reason", status)
		writeServiceError(w, r, err, "registration failed")
		return
	}
	h.cookieMgr.SetSessionCookie(w, result.SessionToken)
	observability.Audit(r, "auth.local.register", "outcome", "success", "user_id", result.User.ID)
	response.JSON(w, r, http.StatusCreated, sessionPayload(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		status = "rejected"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	result, err := h.authSvc.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		status = errorStatus(err)
		observability.Audit(r, "auth.local.login", "outcome", "failure", "reason", status)
		writeServiceError(w, r, err, "login failed")
		return
	}
	h.cookieMgr.SetSessionCookie(w, result.SessionToken)
	observability.Audit(r, "auth.local.login", "outcome", "success", "user_id", result.User.ID)
	response.JSON(w, r, http.StatusOK, sessionPayload(result))
}

// Logout only clears the cookie. Issued tokens stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookieMgr.ClearSessionCookie(w)
	observability.RecordAuthLogout(r.Context(), "success")
	observability.Audit(r, "auth.logout", "outcome", "success")
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "password_forgot", status, time.Since(start))
	}()

	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		status = "rejected"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	issue, err := h.authSvc.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		status = errorStatus(err)
		observability.Audit(r, "auth.password.forgot", "outcome", "failure", "reason", status)
		writeServiceError(w, r, err, "failed to start password reset")
		return
	}
	observability.Audit(r, "auth.password.forgot", "outcome", "accepted")
	response.JSON(w, r, http.StatusAccepted, map[string]any{
		"ticket":     issue.Ticket,
		"expires_at": issue.ExpiresAt,
		"message":    "if the address is registered, a verification code has been sent",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "password_reset", status, time.Since(start))
	}()

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		status = "rejected"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if err := h.authSvc.ResetPassword(r.Context(), req.Ticket, strings.TrimSpace(req.Code), req.Password); err != nil {
		status = errorStatus(err)
		observability.Audit(r, "auth.password.reset", "outcome", "failure", "reason", status)
		writeServiceError(w, r, err, "password reset failed")
		return
	}
	observability.Audit(r, "auth.password.reset", "outcome", "success")
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "password_reset"})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "password_change", status, time.Since(start))
	}()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		status = "denied"
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	uid, err := h.authSvc.ParseUserID(claims.UserID)
	if err != nil {
		status = "denied"
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid subject", nil)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		status = "rejected"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if err := h.authSvc.ChangePassword(r.Context(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		status = errorStatus(err)
		observability.Audit(r, "auth.password.change", "outcome", "failure", "user_id", uid, "reason", status)
		writeServiceError(w, r, err, "password change failed")
		return
	}
	observability.Audit(r, "auth.password.change", "outcome", "success", "user_id", uid)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "password_changed"})
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "google_login", status, time.Since(start))
	}()

	state, err := security.NewRandomString(24)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.google.login", "outcome", "failure", "reason", "state_generation")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to generate oauth state", nil)
		return
	}
	url := h.authSvc.GoogleLoginURL(state)
	if url == "" {
		status = "disabled"
		writeServiceError(w, r, service.ErrGoogleAuthDisabled, "")
		return
	}
	h.cookieMgr.SetOAuthStateCookie(w, security.SignState(state, h.stateKey))
	observability.Audit(r, "auth.google.login", "outcome", "redirect")
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "google_callback", status, time.Since(start))
	}()

	queryState := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if queryState == "" || code == "" {
		status = "rejected"
		observability.Audit(r, "auth.google.callback", "outcome", "failure", "reason", "missing_code_or_state")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing state or code", nil)
		return
	}
	state, ok := security.VerifySignedState(security.GetCookie(r, security.OAuthStateCookieName), h.stateKey)
	// One-time state: clear it whatever the outcome.
	h.cookieMgr.ClearOAuthStateCookie(w)
	if !ok || state != queryState {
		status = "denied"
		observability.Audit(r, "auth.google.callback", "outcome", "failure", "reason", "invalid_state")
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid oauth state", nil)
		return
	}

	result, err := h.authSvc.LoginWithGoogle(r.Context(), code)
	if err != nil {
		status = errorStatus(err)
		observability.Audit(r, "auth.google.callback", "outcome", "failure", "reason", status)
		if status == "failure" {
			response.Error(w, r, http.StatusUnauthorized, "OAUTH_FAILED", "google sign-in failed", nil)
			return
		}
		writeServiceError(w, r, err, "google sign-in failed")
		return
	}
	h.cookieMgr.SetSessionCookie(w, result.SessionToken)
	observability.Audit(r, "auth.login.success", "user_id", result.User.ID, "provider", "google")
	response.JSON(w, r, http.StatusOK, sessionPayload(result))
}

func sessionPayload(result *service.LoginResult) map[string]any {
	return map[string]any{
		"user":       result.User,
		"token":      result.SessionToken,
		"expires_at": result.ExpiresAt,
	}
}
