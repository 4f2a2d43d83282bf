package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sandeepkv93/campus-portal-backend/internal/config"
	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/repository"
	"github.com/sandeepkv93/campus-portal-backend/internal/security"
)

type AuthService struct {
	cfg      *config.Config
	hasher   *security.PasswordHasher
	sessions *security.SessionCodec
	otp      *OTPService
	oauthSvc *OAuthService
	userRepo repository.UserRepository
	credRepo repository.LocalCredentialRepository
	notifier Notifier
	now      func() time.Time
}

type LoginResult struct {
	User         *domain.User `json:"user"`
	SessionToken string       `json:"-"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrGoogleAuthDisabled = errors.New("google auth is disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrAlreadyRegistered  = errors.New("username or email already registered")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
	ErrSamePassword       = errors.New("new password must differ from current password")
	ErrUnknownEmail       = errors.New("no account registered for this email")
	ErrInvalidOTP         = errors.New("invalid one-time code")
)

// OTPRejectedError carries the verifier outcome of a failed reset.
type OTPRejectedError struct {
	Verification OTPVerification
}

func (e *OTPRejectedError) Error() string { return e.Verification.Message }

func (e *OTPRejectedError) Is(target error) bool { return target == ErrInvalidOTP }

var (
	uppercaseRe = regexp.MustCompile(`[A-Z]`)
	lowercaseRe = regexp.MustCompile(`[a-z]`)
	digitRe     = regexp.MustCompile(`[0-9]`)
	specialRe   = regexp.MustCompile(`[^A-Za-z0-9]`)
	usernameRe  = regexp.MustCompile(`^[a-z0-9._-]{3,32}$`)
)

// dummySalt keeps the unknown-user path doing the same KDF work as a real check.
const dummySalt = "00000000000000000000000000000000"

func NewAuthService(
	cfg *config.Config,
	hasher *security.PasswordHasher,
	sessions *security.SessionCodec,
	otp *OTPService,
	oauthSvc *OAuthService,
	userRepo repository.UserRepository,
	credRepo repository.LocalCredentialRepository,
	notifier Notifier,
) *AuthService {
	return &AuthService{
		cfg:      cfg,
		hasher:   hasher,
		sessions: sessions,
		otp:      otp,
		oauthSvc: oauthSvc,
		userRepo: userRepo,
		credRepo: credRepo,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = repository.NormalizeEmail(email)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(username, email); err != nil {
		return nil, err
	}

	hash, salt, err := s.hasher.NewCredential(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username: username,
		Email:    email,
		Role:     initialRole(s.cfg, email),
		Status:   domain.UserStatusActive,
	}
	cred := &domain.LocalCredential{PasswordHash: hash, Salt: salt}
	if err := s.userRepo.CreateWithCredential(user, cred); err != nil {
		if errors.Is(err, repository.ErrUserDuplicate) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	observability.RecordPasswordFlowEvent(ctx, "register", "success")
	return s.issueSession(ctx, user, "local")
}

// Login accepts a username or an email as identifier. Unknown users,
// federated-only users and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (res *LoginResult, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.login", attribute.String("campus.auth.provider", "local"))
	defer func() { observability.EndSpan(span, "", err) }()

	user, err := s.findByIdentifier(identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = s.hasher.Hash(password, dummySalt)
			observability.RecordAuthLogin(ctx, "local", "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	cred, err := s.credRepo.FindByUserID(user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			_ = s.hasher.Hash(password, dummySalt)
			observability.RecordAuthLogin(ctx, "local", "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, cred.PasswordHash, cred.Salt) {
		observability.RecordAuthLogin(ctx, "local", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	if user.Suspended() {
		observability.RecordAuthLogin(ctx, "local", "suspended")
		return nil, ErrAccountSuspended
	}
	return s.issueSession(ctx, user, "local")
}

func (s *AuthService) GoogleLoginURL(state string) string {
	if !s.cfg.AuthGoogleEnabled || s.oauthSvc == nil {
		return ""
	}
	return s.oauthSvc.LoginURL(state)
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, code string) (*LoginResult, error) {
	if !s.cfg.AuthGoogleEnabled || s.oauthSvc == nil {
		return nil, ErrGoogleAuthDisabled
	}
	user, err := s.oauthSvc.HandleGoogleCallback(ctx, code)
	if err != nil {
		observability.RecordAuthLogin(ctx, providerGoogle, "error")
		return nil, err
	}
	if user.Suspended() {
		observability.RecordAuthLogin(ctx, providerGoogle, "suspended")
		return nil, ErrAccountSuspended
	}
	return s.issueSession(ctx, user, providerGoogle)
}

// RequestPasswordReset issues a code for a local account and returns the
// ticket the client submits with it. Unknown and federated-only emails get a
// ticket that never verifies, unless the deployment opts into revealing them.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*OTPIssue, error) {
	email = repository.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByEmail(email)
	if err == nil {
		_, err = s.credRepo.FindByUserID(user.ID)
	}
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) && !errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, err
		}
		observability.RecordPasswordFlowEvent(ctx, "reset_request", "unknown_email")
		if s.cfg.AuthResetRevealUnknownEmail {
			return nil, ErrUnknownEmail
		}
		return s.otp.Ticket(email)
	}

	issue, err := s.otp.Issue(ctx, email, user.Username)
	if err != nil {
		observability.RecordPasswordFlowEvent(ctx, "reset_request", "error")
		return nil, err
	}
	if err := s.notifier.SendOTP(ctx, OTPNotification{
		Email:     issue.Email,
		Username:  issue.Username,
		Code:      issue.Code,
		ExpiresAt: issue.ExpiresAt,
	}); err != nil {
		observability.RecordNotificationDelivery(ctx, "otp", "error")
		return nil, fmt.Errorf("deliver reset code: %w", err)
	}
	observability.RecordNotificationDelivery(ctx, "otp", "success")
	observability.RecordPasswordFlowEvent(ctx, "reset_request", "success")
	return issue, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, ticket, code, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	res, err := s.otp.VerifyTicket(ctx, ticket, strings.TrimSpace(code))
	if err != nil {
		observability.RecordPasswordFlowEvent(ctx, "reset", "error")
		return err
	}
	if !res.Valid {
		observability.RecordPasswordFlowEvent(ctx, "reset", res.Reason)
		return &OTPRejectedError{Verification: res}
	}
	user, err := s.userRepo.FindByEmail(res.Email)
	if err != nil {
		return err
	}
	if err := s.writeCredential(user.ID, newPassword); err != nil {
		observability.RecordPasswordFlowEvent(ctx, "reset", "error")
		return err
	}
	observability.RecordPasswordFlowEvent(ctx, "reset", "success")
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	cred, err := s.credRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if !s.hasher.Verify(currentPassword, cred.PasswordHash, cred.Salt) {
		observability.RecordPasswordFlowEvent(ctx, "change", "invalid_credentials")
		return ErrInvalidCredentials
	}
	if currentPassword == newPassword {
		return ErrSamePassword
	}
	if err := s.writeCredential(userID, newPassword); err != nil {
		observability.RecordPasswordFlowEvent(ctx, "change", "error")
		return err
	}
	observability.RecordPasswordFlowEvent(ctx, "change", "success")
	return nil
}

// ParseUserID converts the session subject back into a user id.
func (s *AuthService) ParseUserID(subject string) (uint, error) {
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user subject")
	}
	return uint(id), nil
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User, provider string) (*LoginResult, error) {
	token, expiresAt, err := s.sessions.CreateSession(security.SessionClaims{
		UserID:   strconv.FormatUint(uint64(user.ID), 10),
		Username: user.Username,
		Role:     user.Role.String(),
	})
	if err != nil {
		observability.RecordAuthLogin(ctx, provider, "error")
		return nil, err
	}
	now := s.now().UTC()
	_ = s.userRepo.TouchLastLogin(user.ID, now)
	user.LastLoginAt = &now
	observability.RecordAuthLogin(ctx, provider, "success")
	return &LoginResult{User: user, SessionToken: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) writeCredential(userID uint, password string) error {
	hash, salt, err := s.hasher.NewCredential(password)
	if err != nil {
		return err
	}
	return s.credRepo.UpdatePassword(userID, hash, salt)
}

func (s *AuthService) findByIdentifier(identifier string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, repository.ErrUserNotFound
	}
	if strings.Contains(identifier, "@") {
		return s.userRepo.FindByEmail(identifier)
	}
	return s.userRepo.FindByUsername(strings.ToLower(identifier))
}

func (s *AuthService) ensureAvailable(username, email string) error {
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	return nil
}

// initialRole grants owner to the configured bootstrap email only.
func initialRole(cfg *config.Config, email string) domain.Role {
	if cfg != nil && cfg.BootstrapOwnerEmail != "" && repository.NormalizeEmail(email) == cfg.BootstrapOwnerEmail {
		return domain.RoleOwner
	}
	return domain.RoleStudent
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return nil
}

func validateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-32 characters of a-z, 0-9, '.', '_' or '-'", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 12 || len(password) > 128 || !uppercaseRe.MatchString(password) ||
		!lowercaseRe.MatchString(password) || !digitRe.MatchString(password) || !specialRe.MatchString(password) {
		return ErrWeakPassword
	}
	return nil
}
