package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatassist.app/api/internal/http/handler"
	"chatassist.app/api/internal/model"
	"chatassist.app/api/internal/service"
)

var _ = Describe("UserHandler", func() {
	var (
		router *gin.Engine
		svc    *mockAuthService
		caller *model.User
	)

	post := func(path string, body any) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) map[string]any {
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		return resp
	}

	BeforeEach(func() {
		router = gin.New()
		svc = &mockAuthService{}
		caller = &model.User{ID: 11, Name: "Ada", Email: "ada@example.com"}
		h := handler.NewUserHandler(svc, 7*24*time.Hour, false)
		router.POST("/register", h.Register)
		router.POST("/login", h.Login)
		authed := router.Group("", authenticatedAs(caller))
		authed.POST("/logout", h.Logout)
		authed.GET("/profile", h.Profile)
	})

	Describe("Register", func() {
		It("returns 201 with the new user", func() {
			svc.registerFn = func(_ context.Context, name, email, _ string) (*model.User, error) {
				return &model.User{ID: 5, Name: name, Email: email, PasswordHash: "hash"}, nil
			}

			w := post("/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "secret1"})

			Expect(w.Code).To(Equal(http.StatusCreated))
			resp := decode(w)
			Expect(resp["message"]).To(Equal("Registration successfully"))
			user := resp["user"].(map[string]any)
			Expect(user["id"]).To(Equal("5"))
			Expect(user).NotTo(HaveKey("passwordHash"))
			Expect(w.Body.String()).NotTo(ContainSubstring("hash"))
		})

		It("reports field errors", func() {
			w := post("/register", map[string]string{"name": "Ada", "email": "not-an-email", "password": "1"})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			resp := decode(w)
			Expect(resp["success"]).To(BeFalse())
			Expect(resp["message"]).To(Equal("Validation failed"))
			paths := []string{}
			for _, e := range resp["errors"].([]any) {
				paths = append(paths, e.(map[string]any)["path"].(string))
			}
			Expect(paths).To(ConsistOf("email", "password"))
		})

		It("rejects a taken email", func() {
			svc.registerFn = func(context.Context, string, string, string) (*model.User, error) {
				return nil, service.ErrEmailTaken
			}

			w := post("/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "secret1"})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(w)["message"]).To(Equal("User already exist"))
		})

		It("returns 500 when the service fails", func() {
			svc.registerFn = func(context.Context, string, string, string) (*model.User, error) {
				return nil, errors.New("boom")
			}

			w := post("/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "secret1"})

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Login", func() {
		It("sets a strict http-only token cookie", func() {
			svc.loginFn = func(_ context.Context, email, _ string) (*model.User, *service.Token, error) {
				return &model.User{ID: 5, Email: email}, &service.Token{Value: "signed.jwt.value"}, nil
			}

			w := post("/login", map[string]string{"email": "ada@example.com", "password": "secret1"})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["message"]).To(Equal("Login successful"))
			cookie := w.Header().Get("Set-Cookie")
			Expect(cookie).To(ContainSubstring("token=signed.jwt.value"))
			Expect(cookie).To(ContainSubstring("HttpOnly"))
			Expect(cookie).To(ContainSubstring("SameSite=Strict"))
			Expect(cookie).To(ContainSubstring("Max-Age=604800"))
			Expect(cookie).NotTo(ContainSubstring("Secure"))
		})

		It("rejects bad credentials", func() {
			svc.loginFn = func(context.Context, string, string) (*model.User, *service.Token, error) {
				return nil, nil, service.ErrInvalidCredentials
			}

			w := post("/login", map[string]string{"email": "ada@example.com", "password": "wrong"})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(w)["message"]).To(Equal("Invalid email or password"))
			Expect(w.Header().Get("Set-Cookie")).To(BeEmpty())
		})
	})

	Describe("Logout", func() {
		It("clears the cookie", func() {
			w := post("/logout", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["message"]).To(Equal("Logout successful"))
			Expect(w.Header().Get("Set-Cookie")).To(ContainSubstring("Max-Age=0"))
		})

		It("returns 500 when revocation fails", func() {
			svc.logoutFn = func(context.Context, *service.Claims) error {
				return errors.New("redis down")
			}

			w := post("/logout", nil)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Profile", func() {
		It("returns the caller", func() {
			svc.profileFn = func(_ context.Context, userID int64) (*model.User, error) {
				Expect(userID).To(Equal(int64(11)))
				return caller, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["user"].(map[string]any)["email"]).To(Equal("ada@example.com"))
		})

		It("returns 404 when the user is gone", func() {
			svc.profileFn = func(context.Context, int64) (*model.User, error) {
				return nil, service.ErrUserNotFound
			}

			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
