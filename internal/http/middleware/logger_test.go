package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatassist.app/api/common/logger"
	"chatassist.app/api/internal/http/middleware"
)

var _ = Describe("Logger", func() {
	var (
		router   *gin.Engine
		buf      *bytes.Buffer
		previous *slog.Logger
	)

	lastRecord := func() map[string]any {
		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		var rec map[string]any
		Expect(json.Unmarshal(lines[len(lines)-1], &rec)).To(Succeed())
		return rec
	}

	BeforeEach(func() {
		previous = slog.Default()
		buf = &bytes.Buffer{}
		slog.SetDefault(slog.New(logger.NewTraceHandler(slog.NewJSONHandler(buf, nil))))
		DeferCleanup(func() { slog.SetDefault(previous) })

		router = gin.New()
		router.Use(middleware.Logger())
		router.GET("/conversations/:id/messages", func(c *gin.Context) { c.Status(http.StatusOK) })
		router.DELETE("/api/conversation/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
		router.POST("/api/message/ask", func(c *gin.Context) {
			c.Header("Content-Type", "text/event-stream")
			c.String(http.StatusOK, "data: [DONE]\n\n")
		})
	})

	It("tags conversation routes with the conversation id", func() {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/conversations/42/messages", nil))

		rec := lastRecord()
		Expect(rec["msg"]).To(Equal("request"))
		Expect(rec["route"]).To(Equal("/conversations/:id/messages"))
		Expect(rec["conversation_id"]).To(BeEquivalentTo(42))
	})

	It("logs rejected requests as warnings", func() {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/conversation/7", nil))

		rec := lastRecord()
		Expect(rec["level"]).To(Equal("WARN"))
		Expect(rec["status"]).To(BeEquivalentTo(404))
		Expect(rec["conversation_id"]).To(BeEquivalentTo(7))
	})

	It("reports event streams when they close", func() {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/message/ask", nil))

		rec := lastRecord()
		Expect(rec["msg"]).To(Equal("stream closed"))
		Expect(rec["stream"]).To(BeTrue())
		Expect(rec).NotTo(HaveKey("conversation_id"))
	})
})
