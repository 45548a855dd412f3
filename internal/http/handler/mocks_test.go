package handler_test

import (
	"context"

	"chatassist.app/api/internal/chat"
	"chatassist.app/api/internal/http/middleware"
	"chatassist.app/api/internal/model"
	"chatassist.app/api/internal/service"
	"github.com/gin-gonic/gin"
)

type mockAuthService struct {
	registerFn     func(ctx context.Context, name, email, password string) (*model.User, error)
	loginFn        func(ctx context.Context, email, password string) (*model.User, *service.Token, error)
	authenticateFn func(ctx context.Context, token string) (*model.User, *service.Claims, error)
	logoutFn       func(ctx context.Context, claims *service.Claims) error
	profileFn      func(ctx context.Context, userID int64) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, name, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.User, *service.Token, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil, nil
}

func (m *mockAuthService) Authenticate(ctx context.Context, token string) (*model.User, *service.Claims, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, token)
	}
	return nil, nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, claims *service.Claims) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, claims)
	}
	return nil
}

func (m *mockAuthService) Profile(ctx context.Context, userID int64) (*model.User, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, userID)
	}
	return nil, nil
}

type mockConversationService struct {
	listFn     func(ctx context.Context, ownerID int64) ([]model.Conversation, error)
	deleteFn   func(ctx context.Context, ownerID, conversationID int64) error
	messagesFn func(ctx context.Context, ownerID, conversationID int64) ([]model.Message, error)
}

func (m *mockConversationService) List(ctx context.Context, ownerID int64) ([]model.Conversation, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID)
	}
	return []model.Conversation{}, nil
}

func (m *mockConversationService) Delete(ctx context.Context, ownerID, conversationID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, conversationID)
	}
	return nil
}

func (m *mockConversationService) Messages(ctx context.Context, ownerID, conversationID int64) ([]model.Message, error) {
	if m.messagesFn != nil {
		return m.messagesFn(ctx, ownerID, conversationID)
	}
	return []model.Message{}, nil
}

type mockRelay struct {
	answerFn func(ctx context.Context, req chat.Request, sink chat.Sink) (*chat.Result, error)
	calls    []chat.Request
}

func (m *mockRelay) Answer(ctx context.Context, req chat.Request, sink chat.Sink) (*chat.Result, error) {
	m.calls = append(m.calls, req)
	if m.answerFn != nil {
		return m.answerFn(ctx, req, sink)
	}
	return &chat.Result{}, nil
}

// authenticatedAs stands in for RequireAuth.
func authenticatedAs(user *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(middleware.WithUser(c.Request.Context(), user))
		c.Next()
	}
}
