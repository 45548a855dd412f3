package chat_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatassist.app/api/common/llm"
	"chatassist.app/api/internal/chat"
	"chatassist.app/api/internal/lock"
	"chatassist.app/api/internal/model"
)

var _ = Describe("Relay", func() {
	var (
		ctx      context.Context
		mem      *memStore
		provider *fakeProvider
		locker   lock.Locker
		relay    chat.Relay
		caller   *chat.Identity
	)

	const ownerID = int64(1)

	build := func(window int) {
		relay = chat.NewRelay(mem, mem, provider, locker, chat.Config{WindowSize: window})
	}

	seedConversation := func(id int64, owner int64, messages int) {
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		mem.seedConversation(model.Conversation{ID: id, OwnerID: owner, Title: "Existing", CreatedAt: base, UpdatedAt: base})
		for i := 1; i <= messages; i++ {
			role := model.RoleUser
			if i%2 == 0 {
				role = model.RoleAssistant
			}
			mem.seedMessages(model.Message{
				ID:             id*1000 + int64(i),
				ConversationID: id,
				Role:           role,
				Content:        "m" + strconv.Itoa(i),
				CreatedAt:      base.Add(time.Duration(i) * time.Minute),
			})
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		mem = newMemStore()
		provider = newFakeProvider("Hel", "lo ", "there")
		locker = lock.NewLocalLocker()
		caller = &chat.Identity{UserID: ownerID, Name: "Ada", Email: "ada@example.com"}
		build(20)
	})

	Describe("rejections before any side effect", func() {
		It("requires a caller", func() {
			sink := &recordingSink{}
			_, err := relay.Answer(ctx, chat.Request{Message: "Hello"}, sink)

			Expect(err).To(MatchError(chat.ErrUnauthenticated))
			Expect(mem.writeCount()).To(BeZero())
			Expect(provider.calls()).To(BeZero())
			Expect(sink.events).To(BeEmpty())
		})

		DescribeTable("requires message text",
			func(message string) {
				_, err := relay.Answer(ctx, chat.Request{Caller: caller, Message: message}, &recordingSink{})

				Expect(err).To(MatchError(chat.ErrInvalidInput))
				Expect(mem.writeCount()).To(BeZero())
				Expect(provider.calls()).To(BeZero())
			},
			Entry("empty", ""),
			Entry("whitespace", "  \n\t "),
		)

		It("reports an unknown conversation as not found", func() {
			missing := int64(404)
			sink := &recordingSink{}
			_, err := relay.Answer(ctx, chat.Request{Caller: caller, ConversationID: &missing, Message: "Hello"}, sink)

			Expect(err).To(MatchError(chat.ErrConversationNotFound))
			Expect(mem.writeCount()).To(BeZero())
			Expect(mem.conversationCount()).To(BeZero())
			Expect(provider.calls()).To(BeZero())
			Expect(sink.events).To(BeEmpty())
		})

		It("reports another user's conversation as not found", func() {
			seedConversation(7, 99, 2)
			convID := int64(7)

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, ConversationID: &convID, Message: "Hello"}, nil)

			Expect(err).To(MatchError(chat.ErrConversationNotFound))
			Expect(mem.messagesOf(7)).To(HaveLen(2))
			Expect(provider.calls()).To(BeZero())
		})

		It("rejects a turn while the conversation is busy", func() {
			seedConversation(7, ownerID, 0)
			convID := int64(7)
			locker = busyLocker{}
			build(20)

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, ConversationID: &convID, Message: "Hello"}, &recordingSink{})

			Expect(err).To(MatchError(chat.ErrConversationBusy))
			Expect(provider.calls()).To(BeZero())
		})
	})

	Describe("streaming a new conversation", func() {
		It("announces the conversation, streams text, then persists the pair", func() {
			sink := &recordingSink{}
			res, err := relay.Answer(ctx, chat.Request{Caller: caller, Message: "Hello"}, sink)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Created).To(BeTrue())
			Expect(res.Reply).To(Equal("Hello there"))
			Expect(sink.events).To(Equal([]string{"created", "text", "text", "text"}))
			Expect(sink.created).To(Equal([]int64{res.ConversationID}))
			Expect(strings.Join(sink.texts, "")).To(Equal(res.Reply))

			conv, err := mem.Conversations().GetByID(ctx, res.ConversationID)
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.Title).To(Equal("Hello"))
			Expect(conv.OwnerID).To(Equal(ownerID))

			msgs := mem.messagesOf(res.ConversationID)
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Role).To(Equal(model.RoleUser))
			Expect(msgs[0].Content).To(Equal("Hello"))
			Expect(msgs[1].Role).To(Equal(model.RoleAssistant))
			Expect(msgs[1].Content).To(Equal("Hello there"))
			Expect(conv.UpdatedAt).To(Equal(msgs[1].CreatedAt))
		})

		It("sends no history for a new conversation", func() {
			_, err := relay.Answer(ctx, chat.Request{Caller: caller, Message: "Hello"}, &recordingSink{})
			Expect(err).NotTo(HaveOccurred())

			req := provider.lastRequest()
			Expect(req.History).To(BeEmpty())
			Expect(req.Input).To(Equal("Hello"))
			Expect(req.System).To(ContainSubstring("Ada"))
			Expect(req.System).To(ContainSubstring("ada@example.com"))
		})

		It("truncates long titles", func() {
			message := "This message is definitely longer than thirty characters"
			provider.reply = "ok"

			res, err := relay.Answer(ctx, chat.Request{Caller: caller, Message: message}, nil)
			Expect(err).NotTo(HaveOccurred())
			conv, err := mem.Conversations().GetByID(ctx, res.ConversationID)
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.Title).To(Equal("This message is definitely lon..."))
		})
	})

	Describe("existing conversations", func() {
		It("replays only the most recent window, oldest first", func() {
			seedConversation(7, ownerID, 25)
			convID := int64(7)
			sink := &recordingSink{}

			res, err := relay.Answer(ctx, chat.Request{Caller: caller, ConversationID: &convID, Message: "next"}, sink)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Created).To(BeFalse())
			Expect(sink.created).To(BeEmpty())
			Expect(sink.events).To(HaveEach("text"))

			history := provider.lastRequest().History
			Expect(history).To(HaveLen(20))
			Expect(history[0].Content).To(Equal("m6"))
			Expect(history[19].Content).To(Equal("m25"))
			Expect(history[0].Role).To(Equal(llm.RoleAssistant))
			Expect(history[1].Role).To(Equal(llm.RoleUser))

			msgs := mem.messagesOf(7)
			Expect(msgs).To(HaveLen(27))
			Expect(msgs[25].Content).To(Equal("next"))
			Expect(msgs[26].Content).To(Equal("Hello there"))
		})

		It("honors a smaller configured window", func() {
			seedConversation(7, ownerID, 25)
			convID := int64(7)
			build(15)
			provider.reply = "ok"

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, ConversationID: &convID, Message: "next"}, nil)
			Expect(err).NotTo(HaveOccurred())

			history := provider.lastRequest().History
			Expect(history).To(HaveLen(15))
			for i, msg := range history {
				Expect(msg.Content).To(Equal("m" + strconv.Itoa(11+i)))
			}
			Expect(history[0].Role).To(Equal(llm.RoleUser))
			Expect(history[14].Role).To(Equal(llm.RoleUser))
		})

		It("keeps an assistant turn at the start of an odd window", func() {
			seedConversation(7, ownerID, 26)
			convID := int64(7)
			build(15)

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, ConversationID: &convID, Message: "next"}, &recordingSink{})
			Expect(err).NotTo(HaveOccurred())

			history := provider.lastRequest().History
			Expect(history).To(HaveLen(15))
			Expect(history[0].Content).To(Equal("m12"))
			Expect(history[0].Role).To(Equal(llm.RoleAssistant))
			Expect(history[14].Content).To(Equal("m26"))
		})

		It("sends every message when the conversation is shorter than the window", func() {
			seedConversation(7, ownerID, 3)
			convID := int64(7)

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, ConversationID: &convID, Message: "next"}, &recordingSink{})
			Expect(err).NotTo(HaveOccurred())
			Expect(provider.lastRequest().History).To(HaveLen(3))
		})
	})

	Describe("non-streaming", func() {
		It("returns and persists the complete reply", func() {
			provider.reply = "A full answer"

			res, err := relay.Answer(ctx, chat.Request{Caller: caller, Message: "Hello"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Reply).To(Equal("A full answer"))

			msgs := mem.messagesOf(res.ConversationID)
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[1].Content).To(Equal("A full answer"))
		})

		It("treats an empty reply as a provider failure", func() {
			provider.reply = ""

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, Message: "Hello"}, nil)
			Expect(err).To(MatchError(chat.ErrProviderFailure))
		})

		It("persists nothing when the provider fails", func() {
			seedConversation(7, ownerID, 2)
			convID := int64(7)
			provider.completeErr = errors.New("rate limited")

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, ConversationID: &convID, Message: "Hello"}, nil)
			Expect(err).To(MatchError(chat.ErrProviderFailure))
			Expect(mem.messagesOf(7)).To(HaveLen(2))
		})
	})

	Describe("failures mid-stream", func() {
		It("forwards fragments already produced and persists nothing", func() {
			seedConversation(7, ownerID, 2)
			convID := int64(7)
			before, _ := mem.Conversations().GetByID(ctx, 7)
			provider.failAfter = 2
			sink := &recordingSink{}

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, ConversationID: &convID, Message: "Hello"}, sink)

			Expect(err).To(MatchError(chat.ErrProviderFailure))
			Expect(errors.Is(err, errProviderBroke)).To(BeTrue())
			Expect(sink.texts).To(Equal([]string{"Hel", "lo "}))
			Expect(mem.messagesOf(7)).To(HaveLen(2))

			after, _ := mem.Conversations().GetByID(ctx, 7)
			Expect(after.UpdatedAt).To(Equal(before.UpdatedAt))
		})

		It("leaves a new conversation without messages", func() {
			provider.failAfter = 1
			sink := &recordingSink{}

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, Message: "Hello"}, sink)

			Expect(err).To(MatchError(chat.ErrProviderFailure))
			Expect(sink.created).To(HaveLen(1))
			Expect(mem.conversationCount()).To(Equal(1))
			Expect(mem.messagesOf(sink.created[0])).To(BeEmpty())
		})

		It("fails when the provider cannot start", func() {
			provider.streamErr = errors.New("401")

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, Message: "Hello"}, &recordingSink{})
			Expect(err).To(MatchError(chat.ErrProviderFailure))
		})

		It("treats an empty stream as a provider failure", func() {
			provider.fragments = nil

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, Message: "Hello"}, &recordingSink{})
			Expect(err).To(MatchError(chat.ErrProviderFailure))
			Expect(errors.Is(err, llm.ErrEmptyResponse)).To(BeTrue())
		})

		It("stops and persists nothing when the caller disconnects", func() {
			seedConversation(7, ownerID, 0)
			convID := int64(7)
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			provider.onFragment = func(i int) {
				if i == 1 {
					cancel()
				}
			}
			sink := &recordingSink{}

			_, err := relay.Answer(cctx, chat.Request{Caller: caller, ConversationID: &convID, Message: "Hello"}, sink)

			Expect(err).To(MatchError(chat.ErrAborted))
			Expect(sink.texts).To(Equal([]string{"Hel", "lo "}))
			Expect(mem.messagesOf(7)).To(BeEmpty())
		})

		It("abandons the turn when the sink cannot be written", func() {
			seedConversation(7, ownerID, 0)
			convID := int64(7)
			sink := &recordingSink{textErr: errors.New("broken pipe")}

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, ConversationID: &convID, Message: "Hello"}, sink)

			Expect(err).To(MatchError(chat.ErrAborted))
			Expect(mem.messagesOf(7)).To(BeEmpty())
		})
	})

	Describe("store failures", func() {
		It("reports a failed persist as a store failure", func() {
			mem.txErr = errors.New("connection reset")

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, Message: "Hello"}, &recordingSink{})
			Expect(err).To(MatchError(chat.ErrStoreFailure))
		})

		It("reports a failed history read as a store failure", func() {
			seedConversation(7, ownerID, 2)
			convID := int64(7)
			mem.listRecentErr = errors.New("timeout")

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, ConversationID: &convID, Message: "Hello"}, nil)
			Expect(err).To(MatchError(chat.ErrStoreFailure))
			Expect(provider.calls()).To(BeZero())
		})

		It("reports a failed conversation create as a store failure", func() {
			mem.createConvErr = errors.New("disk full")

			_, err := relay.Answer(ctx, chat.Request{Caller: caller, Message: "Hello"}, &recordingSink{})
			Expect(err).To(MatchError(chat.ErrStoreFailure))
			Expect(provider.calls()).To(BeZero())
		})
	})

	It("releases the conversation lock after each turn", func() {
		seedConversation(7, ownerID, 0)
		convID := int64(7)

		for range 2 {
			_, err := relay.Answer(ctx, chat.Request{Caller: caller, ConversationID: &convID, Message: "again"}, &recordingSink{})
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(mem.messagesOf(7)).To(HaveLen(4))
	})
})
