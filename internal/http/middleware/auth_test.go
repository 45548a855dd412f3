package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatassist.app/api/internal/http/middleware"
	"chatassist.app/api/internal/model"
	"chatassist.app/api/internal/service"
)

type stubAuthService struct {
	service.AuthService
	authenticateFn func(ctx context.Context, token string) (*model.User, *service.Claims, error)
}

func (s *stubAuthService) Authenticate(ctx context.Context, token string) (*model.User, *service.Claims, error) {
	return s.authenticateFn(ctx, token)
}

var _ = Describe("RequireAuth", func() {
	var (
		router *gin.Engine
		auth   *stubAuthService
		seen   *model.User
		claims *service.Claims
	)

	call := func(cookie string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: middleware.TokenCookieName, Value: cookie})
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	message := func(w *httptest.ResponseRecorder) string {
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["success"]).To(BeFalse())
		return resp["message"].(string)
	}

	BeforeEach(func() {
		seen, claims = nil, nil
		auth = &stubAuthService{}
		router = gin.New()
		router.GET("/private", middleware.RequireAuth(auth), func(c *gin.Context) {
			seen = middleware.GetUser(c.Request.Context())
			claims = middleware.GetClaims(c.Request.Context())
			c.Status(http.StatusNoContent)
		})
	})

	It("rejects requests without a token cookie", func() {
		w := call("")

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(message(w)).To(Equal("Not authorized, please login"))
		Expect(seen).To(BeNil())
	})

	It("attaches the user and claims for a valid token", func() {
		auth.authenticateFn = func(_ context.Context, token string) (*model.User, *service.Claims, error) {
			Expect(token).To(Equal("good"))
			return &model.User{ID: 3}, &service.Claims{UserID: 3, TokenID: "jti"}, nil
		}

		w := call("good")

		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(seen.ID).To(Equal(int64(3)))
		Expect(claims.TokenID).To(Equal("jti"))
	})

	DescribeTable("maps authentication failures",
		func(authErr error, status int, msg string) {
			auth.authenticateFn = func(context.Context, string) (*model.User, *service.Claims, error) {
				return nil, nil, authErr
			}

			w := call("bad")

			Expect(w.Code).To(Equal(status))
			Expect(message(w)).To(Equal(msg))
			Expect(seen).To(BeNil())
		},
		Entry("expired", service.ErrTokenExpired, http.StatusUnauthorized, "Token expired, please login again"),
		Entry("invalid", service.ErrTokenInvalid, http.StatusUnauthorized, "Invalid token, please login again"),
		Entry("deleted user", service.ErrUserNotFound, http.StatusUnauthorized, "User not found"),
		Entry("store outage", errors.New("db down"), http.StatusInternalServerError, "Authentication error"),
	)
})
