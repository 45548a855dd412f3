package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"chatassist.app/api/internal/http/dto"
	"chatassist.app/api/internal/http/middleware"
	"chatassist.app/api/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	authService  service.AuthService
	tokenTTL     time.Duration
	isProduction bool
}

func NewUserHandler(authService service.AuthService, tokenTTL time.Duration, isProduction bool) *UserHandler {
	return &UserHandler{
		authService:  authService,
		tokenTTL:     tokenTTL,
		isProduction: isProduction,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		failValidation(c, err)
		return
	}

	user, err := h.authService.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			slog.InfoContext(ctx, "duplicate registration attempted")
			fail(c, http.StatusBadRequest, "User already exist")
			return
		}
		slog.ErrorContext(ctx, "failed to register user", "error", err)
		fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successfully",
		"user":    dto.ToUserResponse(user),
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		failValidation(c, err)
		return
	}

	user, token, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			fail(c, http.StatusBadRequest, "Invalid email or password")
			return
		}
		slog.ErrorContext(ctx, "failed to log in user", "error", err)
		fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	h.setTokenCookie(c, token.Value, int(h.tokenTTL.Seconds()))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    dto.ToUserResponse(user),
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.authService.Logout(ctx, middleware.GetClaims(ctx)); err != nil {
		slog.ErrorContext(ctx, "failed to revoke token", "error", err)
		fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	h.setTokenCookie(c, "", -1)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logout successful",
	})
}

func (h *UserHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()

	caller, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.Profile(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		slog.ErrorContext(ctx, "failed to load profile", "error", err)
		fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    dto.ToUserResponse(user),
	})
}

func (h *UserHandler) setTokenCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookieName, value, maxAge, "/", "", h.isProduction, true)
}
