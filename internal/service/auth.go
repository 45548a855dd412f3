package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chatassist.app/api/common/id"
	"chatassist.app/api/internal/model"
	"chatassist.app/api/internal/store"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("user already exist")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

const passwordCost = 10

// Token is a signed credential handed to the client.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// Claims are the verified contents of a Token.
type Claims struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, *Token, error)
	// Authenticate verifies token and loads its user.
	Authenticate(ctx context.Context, token string) (*model.User, *Claims, error)
	Logout(ctx context.Context, claims *Claims) error
	Profile(ctx context.Context, userID int64) (*model.User, error)
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type authService struct {
	userStore store.UserStore
	denylist  TokenDenylist
	cfg       AuthConfig
	now       func() time.Time
}

func NewAuthService(userStore store.UserStore, denylist TokenDenylist, cfg AuthConfig) AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if denylist == nil {
		denylist = NoopDenylist{}
	}
	return &authService{
		userStore: userStore,
		denylist:  denylist,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	email = normalizeEmail(email)

	if _, err := s.userStore.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		ID:           id.New(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		slog.ErrorContext(ctx, "failed to create user",
			"error", err,
			"email", email,
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *Token, error) {
	user, err := s.userStore.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	token, err := s.issue(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("issuing token: %w", err)
	}

	slog.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return user, token, nil
}

func (s *authService) issue(userID int64) (*Token, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   id.Format(userID),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, err
	}

	return &Token{
		Value:     signed,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, *Claims, error) {
	claims, err := s.verify(token)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, nil, fmt.Errorf("checking token revocation: %w", err)
	}
	if revoked {
		return nil, nil, ErrTokenInvalid
	}

	user, err := s.userStore.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("getting user: %w", err)
	}

	return user, claims, nil
}

func (s *authService) verify(token string) (*Claims, error) {
	var registered jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &registered, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	userID, err := id.Parse(registered.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject: %w", ErrTokenInvalid, err)
	}

	claims := &Claims{UserID: userID, TokenID: registered.ID}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}

func (s *authService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.TokenID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	slog.InfoContext(ctx, "user logged out", "user_id", claims.UserID)
	return nil
}

func (s *authService) Profile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
