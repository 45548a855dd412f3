package service

import (
	"chatassist.app/api/common/llm"
	"chatassist.app/api/internal/chat"
	"chatassist.app/api/internal/lock"
	"chatassist.app/api/internal/store"
)

type ServicesConfig struct {
	Users    store.UserStore
	Chat     store.StoreProvider
	TxRunner store.TxRunner
	Provider llm.Provider
	Locker   lock.Locker
	Denylist TokenDenylist
	Auth     AuthConfig
	Relay    chat.Config
}

type Services struct {
	auth          AuthService
	conversations ConversationService
	relay         chat.Relay
}

func NewServices(cfg ServicesConfig) *Services {
	return &Services{
		auth:          NewAuthService(cfg.Users, cfg.Denylist, cfg.Auth),
		conversations: NewConversationService(cfg.Chat),
		relay:         chat.NewRelay(cfg.Chat, cfg.TxRunner, cfg.Provider, cfg.Locker, cfg.Relay),
	}
}

func (s *Services) Auth() AuthService {
	return s.auth
}

func (s *Services) Conversations() ConversationService {
	return s.conversations
}

func (s *Services) Relay() chat.Relay {
	return s.relay
}
