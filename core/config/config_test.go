package config_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatassist.app/api/core/config"
)

var _ = Describe("Load", func() {
	setEnv := func(kv map[string]string) {
		for k, v := range kv {
			GinkgoT().Setenv(k, v)
		}
	}

	BeforeEach(func() {
		// production skips .env loading so tests only see what they set
		setEnv(map[string]string{
			"APP_ENV":      "production",
			"JWT_SECRET":   "secret",
			"LLM_PROVIDER": "openai",
			"LLM_API_KEY":  "sk-test",
		})
		os.Unsetenv("CHAT_HISTORY_WINDOW")
		os.Unsetenv("CHAT_STORE")
	})

	It("applies defaults", func() {
		cfg, err := config.Load(config.ServiceTypeServer)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Chat.HistoryWindow).To(Equal(20))
		Expect(cfg.ChatStore).To(Equal(config.ChatStorePostgres))
		Expect(cfg.IsProduction()).To(BeTrue())
		Expect(cfg.Redis.Enabled()).To(BeFalse())
	})

	It("reads the history window from the environment", func() {
		setEnv(map[string]string{"CHAT_HISTORY_WINDOW": "15"})
		cfg, err := config.Load(config.ServiceTypeServer)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Chat.HistoryWindow).To(Equal(15))
	})

	It("requires a JWT secret", func() {
		setEnv(map[string]string{"JWT_SECRET": ""})
		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("JWT_SECRET")))
	})

	It("rejects an unknown provider", func() {
		setEnv(map[string]string{"LLM_PROVIDER": "gemini"})
		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("LLM_PROVIDER")))
	})

	It("requires arango settings when the document store is selected", func() {
		setEnv(map[string]string{"CHAT_STORE": "arangodb", "ARANGO_URL": ""})
		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("ARANGO_URL")))
	})

	It("only needs the database for migrations", func() {
		setEnv(map[string]string{"JWT_SECRET": "", "LLM_API_KEY": ""})
		cfg, err := config.Load(config.ServiceTypeMigrate)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.DB.DSN).NotTo(BeEmpty())
	})

	It("rejects an unknown chat store", func() {
		setEnv(map[string]string{"CHAT_STORE": "mongo"})
		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("unsupported CHAT_STORE")))
	})
})
