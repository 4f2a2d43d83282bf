package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/campus-portal-backend/internal/config"
	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/repository"
	"github.com/sandeepkv93/campus-portal-backend/internal/security"
)

const (
	otpCodeDigits  = 6
	defaultOTPTTL  = 10 * time.Minute
	OTPNotFound    = "not_found"
	OTPExpired     = "expired"
	OTPTooMany     = "too_many_attempts"
	OTPMismatch    = "mismatch"
	otpRequestHint = "request a new code"
)

// OTPIssue is the result of issuing a code. Code is delivered out of band and
// never serialized; Ticket goes to the client.
type OTPIssue struct {
	Email     string    `json:"email"`
	Username  string    `json:"-"`
	Code      string    `json:"-"`
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}

type OTPVerification struct {
	Valid             bool   `json:"valid"`
	Reason            string `json:"reason,omitempty"`
	Message           string `json:"message"`
	Email             string `json:"email,omitempty"`
	Username          string `json:"username,omitempty"`
	RemainingAttempts int    `json:"remaining_attempts,omitempty"`
}

type OTPService struct {
	store      repository.OTPStore
	tickets    *security.OTPTicketCodec
	ttl        time.Duration
	now        func() time.Time
	newCode    func() (string, error)
	newIssueID func() string
}

func NewOTPService(cfg *config.Config, store repository.OTPStore, tickets *security.OTPTicketCodec) *OTPService {
	ttl := defaultOTPTTL
	if cfg != nil && cfg.OTPTTL > 0 {
		ttl = cfg.OTPTTL
	}
	return &OTPService{
		store:      store,
		tickets:    tickets,
		ttl:        ttl,
		now:        time.Now,
		newCode:    func() (string, error) { return security.NewNumericCode(otpCodeDigits) },
		newIssueID: uuid.NewString,
	}
}

// Issue replaces any pending code for the email with a fresh one.
func (s *OTPService) Issue(ctx context.Context, email, username string) (issue *OTPIssue, err error) {
	ctx, span := observability.StartSpan(ctx, "otp.issue")
	outcome := "error"
	defer func() {
		observability.RecordOTPEvent(ctx, "issue", outcome)
		observability.EndSpan(span, outcome, err)
	}()

	email = repository.NormalizeEmail(email)
	if email == "" {
		outcome = "invalid"
		return nil, fmt.Errorf("email is required")
	}
	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	expiresAt := s.now().UTC().Add(s.ttl)
	issueID := s.newIssueID()
	rec := &domain.OTPRecord{Email: email, IssueID: issueID, Code: code, Username: username, ExpiresAt: expiresAt}
	if err := s.store.Save(ctx, rec); err != nil {
		outcome = "store_error"
		return nil, fmt.Errorf("save otp: %w", err)
	}
	ticket, err := s.tickets.Sign(email, username, issueID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign otp ticket: %w", err)
	}
	outcome = "success"
	return &OTPIssue{Email: email, Username: username, Code: code, Ticket: ticket, ExpiresAt: expiresAt}, nil
}

// Ticket signs a ticket without storing a code. Verifying it always yields
// not_found, which keeps reset responses uniform for unknown emails.
func (s *OTPService) Ticket(email string) (*OTPIssue, error) {
	email = repository.NormalizeEmail(email)
	expiresAt := s.now().UTC().Add(s.ttl)
	ticket, err := s.tickets.Sign(email, "", s.newIssueID(), expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign otp ticket: %w", err)
	}
	return &OTPIssue{Email: email, Ticket: ticket, ExpiresAt: expiresAt}, nil
}

// Verify checks code against the pending record for email. Store failures are
// returned as errors; every other outcome is an OTPVerification.
func (s *OTPService) Verify(ctx context.Context, email, code string) (OTPVerification, error) {
	return s.verify(ctx, email, "", code)
}

// verify evaluates code against the record for email. A non-empty issueID
// must match the record's; a record from another issuance reads as not_found
// and its attempt counter is left alone.
func (s *OTPService) verify(ctx context.Context, email, issueID, code string) (OTPVerification, error) {
	ctx, span := observability.StartSpan(ctx, "otp.verify")

	var out OTPVerification
	now := s.now()
	_, err := s.store.Evaluate(ctx, email, func(rec *domain.OTPRecord) repository.OTPAction {
		switch {
		case rec == nil:
			out = OTPVerification{Reason: OTPNotFound, Message: "no pending code, " + otpRequestHint}
			return repository.OTPKeep
		case issueID != "" && subtle.ConstantTimeCompare([]byte(rec.IssueID), []byte(issueID)) != 1:
			out = OTPVerification{Reason: OTPNotFound, Message: "no pending code for this ticket, " + otpRequestHint}
			if rec.Expired(now) {
				return repository.OTPDelete
			}
			return repository.OTPKeep
		case rec.Expired(now):
			out = OTPVerification{Reason: OTPExpired, Message: "code expired, " + otpRequestHint}
			return repository.OTPDelete
		case rec.Attempts >= domain.OTPMaxAttempts:
			out = OTPVerification{Reason: OTPTooMany, Message: "too many attempts, " + otpRequestHint}
			return repository.OTPDelete
		case subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1:
			rec.Attempts++
			out = OTPVerification{
				Reason:            OTPMismatch,
				Message:           fmt.Sprintf("invalid code, %d attempts remaining", rec.RemainingAttempts()),
				RemainingAttempts: rec.RemainingAttempts(),
			}
			return repository.OTPSave
		default:
			out = OTPVerification{Valid: true, Message: "code verified", Email: rec.Email, Username: rec.Username}
			return repository.OTPDelete
		}
	})
	if err != nil {
		observability.RecordOTPEvent(ctx, "verify", "store_error")
		observability.EndSpan(span, "store_error", err)
		return OTPVerification{}, fmt.Errorf("evaluate otp: %w", err)
	}
	outcome := out.Reason
	if out.Valid {
		outcome = "success"
	}
	observability.RecordOTPEvent(ctx, "verify", outcome)
	observability.EndSpan(span, outcome, nil)
	return out, nil
}

// VerifyTicket resolves the email and issuance from a signed ticket, then
// verifies code against that issuance only. A ticket that fails to decode is
// reported as not_found. Expiry is decided by the record, which the ticket
// outlives by security.OTPTicketGrace.
func (s *OTPService) VerifyTicket(ctx context.Context, ticket, code string) (OTPVerification, error) {
	claims, err := s.tickets.Parse(ticket)
	if err != nil {
		observability.RecordOTPEvent(ctx, "verify", "bad_ticket")
		return OTPVerification{Reason: OTPNotFound, Message: "invalid or expired ticket, " + otpRequestHint}, nil
	}
	res, err := s.verify(ctx, claims.Email, claims.ID, code)
	if err != nil {
		return res, err
	}
	if res.Valid && res.Email == "" {
		res.Email = claims.Email
	}
	return res, nil
}
