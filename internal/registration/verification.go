package registration

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// PendingSignup is a registration waiting for its email to be verified.
// PasswordHash is already bcrypt-hashed.
type PendingSignup struct {
	Name         string
	Email        string
	Username     string
	PasswordHash string
}

type otpEntry struct {
	code    string
	expires time.Time
}

type pendingEntry struct {
	signup  PendingSignup
	expires time.Time
}

// VerificationStore keeps OTPs and pending signups in memory, keyed by email.
type VerificationStore struct {
	mu      sync.Mutex
	otps    map[string]otpEntry
	pending map[string]pendingEntry
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

func NewVerificationStore(ttl time.Duration, logger *slog.Logger) *VerificationStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &VerificationStore{
		otps:    make(map[string]otpEntry),
		pending: make(map[string]pendingEntry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GenerateOTP returns six uppercase hex characters.
func GenerateOTP() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

func (s *VerificationStore) TTL() time.Duration {
	return s.ttl
}

func (s *VerificationStore) Store(otp string, p PendingSignup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires := s.now().Add(s.ttl)
	k := key(p.Email)
	s.otps[k] = otpEntry{code: otp, expires: expires}
	s.pending[k] = pendingEntry{signup: p, expires: expires}
}

// VerifyOTP consumes the stored code on success.
func (s *VerificationStore) VerifyOTP(email, otp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(email)
	entry, ok := s.otps[k]
	if !ok {
		return false
	}
	if s.now().After(entry.expires) {
		delete(s.otps, k)
		return false
	}
	if subtle.ConstantTimeCompare([]byte(strings.ToUpper(otp)), []byte(entry.code)) != 1 {
		return false
	}
	delete(s.otps, k)
	return true
}

func (s *VerificationStore) Pending(email string) (PendingSignup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(email)
	entry, ok := s.pending[k]
	if !ok {
		return PendingSignup{}, false
	}
	if s.now().After(entry.expires) {
		delete(s.pending, k)
		return PendingSignup{}, false
	}
	return entry.signup, true
}

func (s *VerificationStore) Remove(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(email)
	delete(s.otps, k)
	delete(s.pending, k)
}

// Sweep drops expired entries and reports how many were removed.
func (s *VerificationStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for k, e := range s.otps {
		if now.After(e.expires) {
			delete(s.otps, k)
			removed++
		}
	}
	for k, e := range s.pending {
		if now.After(e.expires) {
			delete(s.pending, k)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (s *VerificationStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("expired verification entries removed", "count", n)
			}
		}
	}
}
