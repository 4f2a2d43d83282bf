package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/sandeepkv93/campus-portal-backend/internal/config"
	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/repository"
)

const providerGoogle = "google"

type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	EmailVerified  bool
}

type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error)
}

type GoogleOAuthProvider struct {
	cfg *oauth2.Config
}

func NewGoogleOAuthProvider(cfg *config.Config) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{cfg: &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}}
}

func (p *GoogleOAuthProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (p *GoogleOAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.cfg.Exchange(ctx, code)
}

func (p *GoogleOAuthProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error) {
	client := p.cfg.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://openidconnect.googleapis.com/v1/userinfo", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status: %d", resp.StatusCode)
	}
	var body struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Sub == "" || body.Email == "" {
		return nil, fmt.Errorf("missing required userinfo fields")
	}
	return &OAuthUserInfo{ProviderUserID: body.Sub, Email: strings.ToLower(body.Email), Name: body.Name, EmailVerified: body.EmailVerified}, nil
}

type OAuthService struct {
	provider  OAuthProvider
	cfg       *config.Config
	userRepo  repository.UserRepository
	oauthRepo repository.OAuthRepository
}

func NewOAuthService(provider OAuthProvider, cfg *config.Config, userRepo repository.UserRepository, oauthRepo repository.OAuthRepository) *OAuthService {
	return &OAuthService{provider: provider, cfg: cfg, userRepo: userRepo, oauthRepo: oauthRepo}
}

func (s *OAuthService) LoginURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// HandleGoogleCallback exchanges the code and resolves the local user. A
// first-time login creates a federated-only user with no local credential.
func (s *OAuthService) HandleGoogleCallback(ctx context.Context, code string) (*domain.User, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	exchangeStart := time.Now()
	token, err := s.provider.Exchange(ctx, code)
	observability.RecordGoogleOAuthRequestDuration(ctx, "exchange", classifyOAuthError(err), time.Since(exchangeStart))
	if err != nil {
		return nil, err
	}
	userInfoStart := time.Now()
	info, err := s.provider.FetchUserInfo(ctx, token)
	observability.RecordGoogleOAuthRequestDuration(ctx, "userinfo", classifyOAuthError(err), time.Since(userInfoStart))
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("missing required userinfo fields")
	}
	if !info.EmailVerified {
		return nil, fmt.Errorf("google email not verified")
	}

	acct, err := s.oauthRepo.FindByProvider(providerGoogle, info.ProviderUserID)
	switch {
	case err == nil:
		return s.userRepo.FindByID(acct.UserID)
	case !errors.Is(err, repository.ErrOAuthAccountNotFound):
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(info.Email)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrUserNotFound):
		username, uerr := s.uniqueUsername(info.Email)
		if uerr != nil {
			return nil, uerr
		}
		user = &domain.User{
			Username: username,
			Email:    info.Email,
			Role:     initialRole(s.cfg, info.Email),
			Status:   domain.UserStatusActive,
		}
		if err := s.userRepo.Create(user); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	if err := s.oauthRepo.Create(&domain.OAuthAccount{
		UserID:         user.ID,
		Provider:       providerGoogle,
		ProviderUserID: info.ProviderUserID,
		Email:          info.Email,
	}); err != nil {
		if !errors.Is(err, repository.ErrOAuthAccountLinked) {
			return nil, err
		}
		// A concurrent callback linked the subject first.
		acct, ferr := s.oauthRepo.FindByProvider(providerGoogle, info.ProviderUserID)
		if ferr != nil {
			return nil, ferr
		}
		return s.userRepo.FindByID(acct.UserID)
	}
	return user, nil
}

// uniqueUsername derives a username from the email local part and appends a
// short random suffix when it is taken.
func (s *OAuthService) uniqueUsername(email string) (string, error) {
	base := sanitizeUsername(strings.SplitN(email, "@", 2)[0])
	candidate := base
	for i := 0; i < 5; i++ {
		_, err := s.userRepo.FindByUsername(candidate)
		if errors.Is(err, repository.ErrUserNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = base + "-" + uuid.NewString()[:6]
	}
	return "", fmt.Errorf("could not allocate username for %s", email)
}

func sanitizeUsername(v string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(v) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) < 3 {
		out = "student" + out
	}
	if len(out) > 32 {
		out = out[:32]
	}
	return out
}

func classifyOAuthError(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, context.Canceled) {
		return "context_canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "userinfo status:"):
		return "userinfo_status"
	case strings.Contains(msg, "missing required userinfo fields"):
		return "invalid_userinfo"
	case strings.Contains(msg, "oauth2"):
		return "oauth2_exchange"
	default:
		return "other"
	}
}
