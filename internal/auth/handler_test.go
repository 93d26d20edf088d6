package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type stubService struct {
	principal  *Principal
	authErr    error
	loggedOut  string
	loginCalls int
}

func (s *stubService) Authenticate(_ context.Context, dto LoginDTO) (*LoginResult, error) {
	s.loginCalls++
	if dto.Password != "secret123" {
		return nil, internal.ErrInvalidCredentials
	}
	return &LoginResult{AuthTokens: AuthTokens{AccessToken: "a", RefreshToken: "r"}, User: s.principal}, nil
}

func (s *stubService) RefreshTokens(_ context.Context, token string) (*AuthTokens, error) {
	return &AuthTokens{AccessToken: "a2", RefreshToken: token + "-next"}, nil
}

func (s *stubService) Logout(_ context.Context, userID string) error {
	s.loggedOut = userID
	return nil
}

func (s *stubService) Authorize(_ context.Context, token string) (*Principal, error) {
	if s.authErr != nil {
		return nil, s.authErr
	}
	if token != "good" {
		return nil, internal.ErrInvalidToken
	}
	return s.principal, nil
}

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		svc     *stubService
		handler *Handler
	)

	ginkgo.BeforeEach(func() {
		svc = &stubService{principal: adminPrincipal("admin-1")}
		handler = NewHandler(svc, logger.Discard())
	})

	ginkgo.It("returns tokens and the user on login", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.co","password":"secret123"}`))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		var body map[string]interface{}
		gomega.Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(gomega.Succeed())
		gomega.Expect(body).To(gomega.HaveKeyWithValue("accessToken", "a"))
		gomega.Expect(body).To(gomega.HaveKey("user"))
	})

	ginkgo.It("answers 400 for a malformed login body", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":`))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(w.Body.String()).To(gomega.ContainSubstring("Invalid request data"))
		gomega.Expect(svc.loginCalls).To(gomega.Equal(0))
	})

	ginkgo.It("answers 401 for bad credentials", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.co","password":"wrong"}`))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("requires a refresh token", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{}`))
		w := httptest.NewRecorder()

		handler.RefreshToken(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var reached *Principal

		protected := func() http.Handler {
			return handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached, _ = UserFromContext(r.Context())
				gomega.Expect(internal.UserIDFromContext(r.Context())).To(gomega.Equal("admin-1"))
				w.WriteHeader(http.StatusOK)
			}))
		}

		ginkgo.BeforeEach(func() { reached = nil })

		ginkgo.It("rejects requests without a bearer token", func() {
			w := httptest.NewRecorder()
			protected().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(w.Body.String()).To(gomega.ContainSubstring(`"error":"Unauthorized"`))
			gomega.Expect(reached).To(gomega.BeNil())
		})

		ginkgo.It("rejects invalid tokens with the generic message", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			req.Header.Set("Authorization", "Bearer bad")
			w := httptest.NewRecorder()

			protected().ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(w.Body.String()).To(gomega.ContainSubstring("Unauthorized"))
		})

		ginkgo.It("attaches the principal for valid tokens", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			req.Header.Set("Authorization", "Bearer good")
			w := httptest.NewRecorder()

			protected().ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(reached.UserID).To(gomega.Equal("admin-1"))
		})
	})

	ginkgo.It("logs out the principal in context", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req = req.WithContext(WithPrincipal(req.Context(), svc.principal))
		w := httptest.NewRecorder()

		handler.Logout(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(svc.loggedOut).To(gomega.Equal("admin-1"))
	})
})
