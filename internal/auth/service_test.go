package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

type storedToken struct {
	record RefreshTokenRecord
	hash   string
}

// mockRepository keeps users and refresh tokens in maps.
type mockRepository struct {
	creds      map[string]*Credentials
	principals map[string]*Principal
	tokens     map[string]*storedToken
	seq        int
	shouldFail bool
}

func newMockRepository() *mockRepository {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)

	repo := &mockRepository{
		creds:      map[string]*Credentials{},
		principals: map[string]*Principal{},
		tokens:     map[string]*storedToken{},
	}
	repo.addUser("admin-1", "admin@example.com", "admin", RoleAdmin, UserStatusActive, string(hash))
	repo.addUser("emp-1", "agent@example.com", "agent", RoleEmployee, UserStatusActive, string(hash))
	repo.addUser("off-1", "inactive@example.com", "inactive", RoleAdmin, UserStatusInactive, string(hash))
	repo.principals["emp-1"].AdminID = "admin-1"
	repo.principals["emp-1"].EmployeeID = "employee-1"
	repo.principals["emp-1"].Permissions = permission.Default()
	return repo
}

func (m *mockRepository) addUser(id, email, username string, role Role, status UserStatus, hash string) {
	c := &Credentials{UserID: id, PasswordHash: hash, Status: status}
	m.creds[email] = c
	m.creds[username] = c
	p := &Principal{UserID: id, Email: email, Username: username, Role: role, Status: status}
	if role == RoleAdmin {
		p.AdminID = id
		p.Permissions = permission.Full()
	}
	m.principals[id] = p
}

func (m *mockRepository) FindCredentials(_ context.Context, login string) (*Credentials, error) {
	if m.shouldFail {
		return nil, errors.New("database down")
	}
	c, ok := m.creds[login]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockRepository) LoadPrincipal(_ context.Context, userID string) (*Principal, error) {
	p, ok := m.principals[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) CreateRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	m.seq++
	id := fmt.Sprintf("rt-%d", m.seq)
	m.tokens[tokenHash] = &storedToken{hash: tokenHash, record: RefreshTokenRecord{ID: id, UserID: userID, ExpiresAt: expiresAt}}
	return nil
}

func (m *mockRepository) FindRefreshToken(_ context.Context, tokenHash string) (*RefreshTokenRecord, error) {
	t, ok := m.tokens[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	rec := t.record
	return &rec, nil
}

func (m *mockRepository) RotateRefreshToken(ctx context.Context, oldID, userID, newHash string, expiresAt time.Time) error {
	for _, t := range m.tokens {
		if t.record.ID == oldID {
			t.record.Revoked = true
		}
	}
	return m.CreateRefreshToken(ctx, userID, newHash, expiresAt)
}

func (m *mockRepository) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	for _, t := range m.tokens {
		if t.record.UserID == userID {
			t.record.Revoked = true
		}
	}
	return nil
}

func (m *mockRepository) activeTokens(userID string) int {
	n := 0
	for _, t := range m.tokens {
		if t.record.UserID == userID && !t.record.Revoked {
			n++
		}
	}
	return n
}

var _ = ginkgo.Describe("Auth Service", func() {
	var (
		repo    *mockRepository
		tokens  *JWTTokenGenerator
		service *Service
		ctx     context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		tokens = NewJWTTokenGenerator(
			"access-secret-access-secret-access-secret",
			"refresh-secret-refresh-secret-refresh-secret",
			15*time.Minute, 24*time.Hour,
		)
		service = NewService(repo, tokens, bcrypt.MinCost, logger.Discard())
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.It("issues a token pair for valid email credentials", func() {
			result, err := service.Authenticate(ctx, LoginDTO{Email: "admin@example.com", Password: "correct_password"})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.AccessToken).NotTo(gomega.BeEmpty())
			gomega.Expect(result.RefreshToken).NotTo(gomega.BeEmpty())
			gomega.Expect(result.User.UserID).To(gomega.Equal("admin-1"))
			gomega.Expect(repo.activeTokens("admin-1")).To(gomega.Equal(1))
		})

		ginkgo.It("accepts a username in place of the email", func() {
			result, err := service.Authenticate(ctx, LoginDTO{Email: "agent", Password: "correct_password"})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.User.Role).To(gomega.Equal(RoleEmployee))
			gomega.Expect(result.User.AdminID).To(gomega.Equal("admin-1"))
		})

		ginkgo.It("rejects a wrong password", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "admin@example.com", Password: "nope"})

			gomega.Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(gomega.BeTrue())
		})

		ginkgo.It("rejects an unknown user with the same message", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "ghost@example.com", Password: "correct_password"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Message).To(gomega.Equal("Invalid credentials"))
		})

		ginkgo.It("rejects inactive users", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "inactive@example.com", Password: "correct_password"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(401))
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeUserInactive))
		})

		ginkgo.It("requires both fields", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "  "})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(400))
		})

		ginkgo.It("wraps repository failures as internal errors", func() {
			repo.shouldFail = true

			_, err := service.Authenticate(ctx, LoginDTO{Email: "admin@example.com", Password: "correct_password"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(500))
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		var login *LoginResult

		ginkgo.BeforeEach(func() {
			var err error
			login, err = service.Authenticate(ctx, LoginDTO{Email: "admin@example.com", Password: "correct_password"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("rotates the refresh token", func() {
			next, err := service.RefreshTokens(ctx, login.RefreshToken)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(next.RefreshToken).NotTo(gomega.Equal(login.RefreshToken))
			gomega.Expect(repo.activeTokens("admin-1")).To(gomega.Equal(1))

			old, _ := repo.FindRefreshToken(ctx, HashToken(login.RefreshToken))
			gomega.Expect(old.Revoked).To(gomega.BeTrue())
		})

		ginkgo.It("revokes every session when a rotated token is replayed", func() {
			next, err := service.RefreshTokens(ctx, login.RefreshToken)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.RefreshTokens(ctx, login.RefreshToken)

			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
			gomega.Expect(repo.activeTokens("admin-1")).To(gomega.Equal(0))

			_, err = service.RefreshTokens(ctx, next.RefreshToken)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("rejects an access token presented as refresh token", func() {
			_, err := service.RefreshTokens(ctx, login.AccessToken)

			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("rejects a validly signed token that was never stored", func() {
			orphan, _, err := tokens.GenerateRefreshToken("admin-1")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.RefreshTokens(ctx, orphan)

			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Logout", func() {
		ginkgo.It("revokes all refresh tokens of the user", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "admin@example.com", Password: "correct_password"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			_, err = service.Authenticate(ctx, LoginDTO{Email: "admin", Password: "correct_password"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(repo.activeTokens("admin-1")).To(gomega.Equal(2))

			gomega.Expect(service.Logout(ctx, "admin-1")).To(gomega.Succeed())
			gomega.Expect(repo.activeTokens("admin-1")).To(gomega.Equal(0))
		})
	})

	ginkgo.Describe("Authorize", func() {
		ginkgo.It("resolves an access token into the principal", func() {
			token, err := tokens.GenerateAccessToken("emp-1", "agent@example.com", RoleEmployee)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			p, err := service.Authorize(ctx, token)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(p.EmployeeID).To(gomega.Equal("employee-1"))
			gomega.Expect(p.TenantID()).To(gomega.Equal("admin-1"))
		})

		ginkgo.It("rejects tokens of deleted users", func() {
			token, _ := tokens.GenerateAccessToken("gone", "gone@example.com", RoleAdmin)

			_, err := service.Authorize(ctx, token)

			gomega.Expect(errors.Is(err, internal.ErrUnauthorized)).To(gomega.BeTrue())
		})

		ginkgo.It("rejects expired tokens", func() {
			tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
			token, _ := tokens.GenerateAccessToken("admin-1", "admin@example.com", RoleAdmin)
			tokens.now = time.Now

			_, err := service.Authorize(ctx, token)

			gomega.Expect(errors.Is(err, internal.ErrTokenExpired)).To(gomega.BeTrue())
		})
	})
})
