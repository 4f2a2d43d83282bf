package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/http/middleware"
	"github.com/sandeepkv93/campus-portal-backend/internal/security"
	"github.com/sandeepkv93/campus-portal-backend/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type stubAuthService struct {
	registerFn    func(username, email, password string) (*service.LoginResult, error)
	loginFn       func(identifier, password string) (*service.LoginResult, error)
	googleURLFn   func(state string) string
	googleLoginFn func(code string) (*service.LoginResult, error)
	forgotFn      func(email string) (*service.OTPIssue, error)
	resetFn       func(ticket, code, newPassword string) error
	changePassFn  func(userID uint, currentPassword, newPassword string) error
}

func (s *stubAuthService) Register(_ context.Context, username, email, password string) (*service.LoginResult, error) {
	if s.registerFn != nil {
		return s.registerFn(username, email, password)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) Login(_ context.Context, identifier, password string) (*service.LoginResult, error) {
	if s.loginFn != nil {
		return s.loginFn(identifier, password)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) GoogleLoginURL(state string) string {
	if s.googleURLFn != nil {
		return s.googleURLFn(state)
	}
	return ""
}

func (s *stubAuthService) LoginWithGoogle(_ context.Context, code string) (*service.LoginResult, error) {
	if s.googleLoginFn != nil {
		return s.googleLoginFn(code)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) RequestPasswordReset(_ context.Context, email string) (*service.OTPIssue, error) {
	if s.forgotFn != nil {
		return s.forgotFn(email)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) ResetPassword(_ context.Context, ticket, code, newPassword string) error {
	if s.resetFn != nil {
		return s.resetFn(ticket, code, newPassword)
	}
	return errors.New("not implemented")
}

func (s *stubAuthService) ChangePassword(_ context.Context, userID uint, currentPassword, newPassword string) error {
	if s.changePassFn != nil {
		return s.changePassFn(userID, currentPassword, newPassword)
	}
	return errors.New("not implemented")
}

func (s *stubAuthService) ParseUserID(subject string) (uint, error) {
	var id uint
	if _, err := fmt.Sscanf(subject, "%d", &id); err != nil || id == 0 {
		return 0, errors.New("invalid user subject")
	}
	return id, nil
}

func withClaims(r *http.Request, userID string, role domain.Role) *http.Request {
	claims := &security.SessionClaims{UserID: userID, Username: "ada", Role: string(role)}
	ctx := context.WithValue(r.Context(), middleware.ClaimsContextKey, claims)
	return r.WithContext(ctx)
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func loginResult() *service.LoginResult {
	return &service.LoginResult{
		User:         &domain.User{ID: 7, Username: "ada", Email: "ada@uni.edu", Role: domain.RoleStudent},
		SessionToken: "signed.session.token",
		ExpiresAt:    time.Now().Add(security.SessionTTL),
	}
}

func newTestAuthHandler(svc *stubAuthService) *AuthHandler {
	return NewAuthHandler(svc, security.NewCookieManager("", false, "strict"), "state-key")
}

func TestAuthHandlerLoginSetsSessionCookie(t *testing.T) {
	var gotIdentifier string
	h := newTestAuthHandler(&stubAuthService{loginFn: func(identifier, _ string) (*service.LoginResult, error) {
		gotIdentifier = identifier
		return loginResult(), nil
	}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"identifier":"ada","password":"Correct-Horse-9"}`))
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotIdentifier != "ada" {
		t.Fatalf("expected identifier ada, got %q", gotIdentifier)
	}
	c := findCookie(rr.Result().Cookies(), security.SessionCookieName)
	if c == nil || c.Value != "signed.session.token" || !c.HttpOnly {
		t.Fatalf("expected http-only session cookie, got %+v", c)
	}
	env := decodeEnvelope(t, rr)
	if !env.Success || !strings.Contains(string(env.Data), `"username":"ada"`) {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestAuthHandlerLoginErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "malformed body", body: `{`, wantCode: http.StatusBadRequest, wantErr: "BAD_REQUEST"},
		{name: "unknown field", body: `{"identifier":"a","password":"b","admin":true}`, wantCode: http.StatusBadRequest, wantErr: "BAD_REQUEST"},
		{name: "invalid credentials", body: `{"identifier":"a","password":"b"}`, err: service.ErrInvalidCredentials, wantCode: http.StatusUnauthorized, wantErr: "UNAUTHORIZED"},
		{name: "suspended", body: `{"identifier":"a","password":"b"}`, err: service.ErrAccountSuspended, wantCode: http.StatusForbidden, wantErr: "ACCOUNT_SUSPENDED"},
		{name: "persistence", body: `{"identifier":"a","password":"b"}`, err: errors.New("connection reset"), wantCode: http.StatusInternalServerError, wantErr: "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestAuthHandler(&stubAuthService{loginFn: func(string, string) (*service.LoginResult, error) {
				return nil, tc.err
			}})
			rr := httptest.NewRecorder()
			h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tc.body)))
			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			env := decodeEnvelope(t, rr)
			if env.Error == nil || env.Error.Code != tc.wantErr {
				t.Fatalf("expected %s, got %+v", tc.wantErr, env.Error)
			}
			if strings.Contains(env.Error.Message, "connection reset") {
				t.Fatal("internal error text must not leak")
			}
			if findCookie(rr.Result().Cookies(), security.SessionCookieName) != nil {
				t.Fatal("failed login must not set a session cookie")
			}
		})
	}
}

func TestAuthHandlerRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		h := newTestAuthHandler(&stubAuthService{registerFn: func(username, email, _ string) (*service.LoginResult, error) {
			if username != "ada" || email != "ada@uni.edu" {
				t.Fatalf("unexpected args %q %q", username, email)
			}
			return loginResult(), nil
		}})
		rr := httptest.NewRecorder()
		h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"username":"ada","email":"ada@uni.edu","password":"Correct-Horse-9"}`)))
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rr.Code)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		h := newTestAuthHandler(&stubAuthService{registerFn: func(string, string, string) (*service.LoginResult, error) {
			return nil, service.ErrAlreadyRegistered
		}})
		rr := httptest.NewRecorder()
		h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"username":"ada","email":"ada@uni.edu","password":"x"}`)))
		if rr.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rr.Code)
		}
	})

	t.Run("weak password carries policy details", func(t *testing.T) {
		h := newTestAuthHandler(&stubAuthService{registerFn: func(string, string, string) (*service.LoginResult, error) {
			return nil, service.ErrWeakPassword
		}})
		rr := httptest.NewRecorder()
		h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"username":"ada","email":"ada@uni.edu","password":"short"}`)))
		env := decodeEnvelope(t, rr)
		if rr.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "WEAK_PASSWORD" || env.Error.Details["min_length"] != float64(12) {
			t.Fatalf("unexpected response %d %+v", rr.Code, env.Error)
		}
	})
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	h := newTestAuthHandler(&stubAuthService{})
	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	c := findCookie(rr.Result().Cookies(), security.SessionCookieName)
	if rr.Code != http.StatusOK || c == nil || c.MaxAge >= 0 {
		t.Fatalf("expected cleared session cookie, got %d %+v", rr.Code, c)
	}
}

func TestAuthHandlerForgotPassword(t *testing.T) {
	t.Run("accepted with ticket", func(t *testing.T) {
		h := newTestAuthHandler(&stubAuthService{forgotFn: func(email string) (*service.OTPIssue, error) {
			return &service.OTPIssue{Email: email, Code: "123456", Ticket: "ticket-1", ExpiresAt: time.Now().Add(10 * time.Minute)}, nil
		}})
		rr := httptest.NewRecorder()
		h.ForgotPassword(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/password/forgot", strings.NewReader(`{"email":"ada@uni.edu"}`)))
		if rr.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rr.Code)
		}
		body := rr.Body.String()
		if !strings.Contains(body, `"ticket":"ticket-1"`) || strings.Contains(body, "123456") {
			t.Fatalf("response must carry the ticket and never the code: %s", body)
		}
	})

	t.Run("unknown email when revealing", func(t *testing.T) {
		h := newTestAuthHandler(&stubAuthService{forgotFn: func(string) (*service.OTPIssue, error) {
			return nil, service.ErrUnknownEmail
		}})
		rr := httptest.NewRecorder()
		h.ForgotPassword(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/password/forgot", strings.NewReader(`{"email":"nobody@uni.edu"}`)))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})
}

func TestAuthHandlerResetPassword(t *testing.T) {
	t.Run("mismatch reports remaining attempts", func(t *testing.T) {
		h := newTestAuthHandler(&stubAuthService{resetFn: func(ticket, code, _ string) error {
			if ticket != "ticket-1" || code != "000000" {
				t.Fatalf("unexpected args %q %q", ticket, code)
			}
			return &service.OTPRejectedError{Verification: service.OTPVerification{
				Reason:            service.OTPMismatch,
				Message:           "invalid code, 2 attempts remaining",
				RemainingAttempts: 2,
			}}
		}})
		rr := httptest.NewRecorder()
		h.ResetPassword(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/password/reset", strings.NewReader(`{"ticket":"ticket-1","code":" 000000 ","password":"Correct-Horse-9"}`)))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		env := decodeEnvelope(t, rr)
		if env.Error.Code != "INVALID_OTP" || env.Error.Message != "invalid code, 2 attempts remaining" {
			t.Fatalf("unexpected error %+v", env.Error)
		}
		if env.Error.Details["remaining_attempts"] != float64(2) || env.Error.Details["reason"] != service.OTPMismatch {
			t.Fatalf("unexpected details %+v", env.Error.Details)
		}
	})

	t.Run("success", func(t *testing.T) {
		h := newTestAuthHandler(&stubAuthService{resetFn: func(string, string, string) error { return nil }})
		rr := httptest.NewRecorder()
		h.ResetPassword(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/password/reset", strings.NewReader(`{"ticket":"t","code":"123456","password":"Correct-Horse-9"}`)))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})
}

func TestAuthHandlerChangePassword(t *testing.T) {
	t.Run("missing auth context", func(t *testing.T) {
		h := newTestAuthHandler(&stubAuthService{})
		rr := httptest.NewRecorder()
		h.ChangePassword(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/password/change", strings.NewReader(`{}`)))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "ok", wantCode: http.StatusOK},
		{name: "wrong current password", err: service.ErrInvalidCredentials, wantCode: http.StatusUnauthorized},
		{name: "same password", err: service.ErrSamePassword, wantCode: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotID uint
			h := newTestAuthHandler(&stubAuthService{changePassFn: func(userID uint, _, _ string) error {
				gotID = userID
				return tc.err
			}})
			req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/auth/password/change", strings.NewReader(`{"current_password":"a","new_password":"b"}`)), "77", domain.RoleStudent)
			rr := httptest.NewRecorder()
			h.ChangePassword(rr, req)
			if rr.Code != tc.wantCode || gotID != 77 {
				t.Fatalf("expected %d for user 77, got %d for %d", tc.wantCode, rr.Code, gotID)
			}
		})
	}
}

func TestAuthHandlerGoogleFlow(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newTestAuthHandler(&stubAuthService{})
		rr := httptest.NewRecorder()
		h.GoogleLogin(rr, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/login", nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	var issuedState string
	svc := &stubAuthService{
		googleURLFn: func(state string) string {
			issuedState = state
			return "https://accounts.google.com/o/oauth2/auth?state=" + state
		},
		googleLoginFn: func(code string) (*service.LoginResult, error) {
			if code != "auth-code" {
				return nil, errors.New("exchange failed")
			}
			return loginResult(), nil
		},
	}
	h := newTestAuthHandler(svc)

	rr := httptest.NewRecorder()
	h.GoogleLogin(rr, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/login", nil))
	if rr.Code != http.StatusFound || issuedState == "" {
		t.Fatalf("expected redirect with state, got %d", rr.Code)
	}
	stateCookie := findCookie(rr.Result().Cookies(), security.OAuthStateCookieName)
	if stateCookie == nil {
		t.Fatal("expected oauth state cookie")
	}

	t.Run("state mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=other&code=auth-code", nil)
		req.AddCookie(stateCookie)
		rr := httptest.NewRecorder()
		h.GoogleCallback(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("exchange failure does not leak", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state="+issuedState+"&code=bad", nil)
		req.AddCookie(stateCookie)
		rr := httptest.NewRecorder()
		h.GoogleCallback(rr, req)
		env := decodeEnvelope(t, rr)
		if rr.Code != http.StatusUnauthorized || env.Error.Code != "OAUTH_FAILED" || strings.Contains(env.Error.Message, "exchange") {
			t.Fatalf("unexpected response %d %+v", rr.Code, env.Error)
		}
	})

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state="+issuedState+"&code=auth-code", nil)
		req.AddCookie(stateCookie)
		rr := httptest.NewRecorder()
		h.GoogleCallback(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		cookies := rr.Result().Cookies()
		if c := findCookie(cookies, security.SessionCookieName); c == nil || c.Value == "" {
			t.Fatal("expected session cookie")
		}
		if c := findCookie(cookies, security.OAuthStateCookieName); c == nil || c.MaxAge >= 0 {
			t.Fatal("expected state cookie to be cleared")
		}
	})
}
