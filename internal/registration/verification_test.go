package registration

import (
	"testing"
	"time"

	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
)

func TestVerificationStoreExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewVerificationStore(10*time.Minute, logger.Discard())
	store.now = func() time.Time { return now }

	store.Store("ABC123", PendingSignup{Email: "A@example.com"})

	if _, ok := store.Pending("a@example.com"); !ok {
		t.Fatal("pending signup should be found case-insensitively")
	}

	now = now.Add(11 * time.Minute)
	if store.VerifyOTP("a@example.com", "ABC123") {
		t.Fatal("expired code must not verify")
	}
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected the pending entry to be swept, removed %d", removed)
	}
}

func TestVerificationStoreConsumesCode(t *testing.T) {
	store := NewVerificationStore(time.Minute, logger.Discard())
	store.Store("ABC123", PendingSignup{Email: "a@example.com"})

	if !store.VerifyOTP("a@example.com", "abc123") {
		t.Fatal("code should match case-insensitively")
	}
	if store.VerifyOTP("a@example.com", "ABC123") {
		t.Fatal("code must be single use")
	}
}

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP()
	if err != nil {
		t.Fatal(err)
	}
	if len(otp) != 6 {
		t.Fatalf("want 6 characters, got %q", otp)
	}
}
