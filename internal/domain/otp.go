package domain

import "time"

const OTPMaxAttempts = 3

// OTPRecord is the pending code for one email. IssueID ties it to the ticket
// handed out with it, so a reissue orphans older tickets.
type OTPRecord struct {
	Email     string    `json:"email"`
	IssueID   string    `json:"issue_id"`
	Code      string    `json:"code"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

func (r *OTPRecord) Expired(now time.Time) bool { return now.After(r.ExpiresAt) }

func (r *OTPRecord) RemainingAttempts() int {
	if n := OTPMaxAttempts - r.Attempts; n > 0 {
		return n
	}
	return 0
}
