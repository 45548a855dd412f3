package redis_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatassist.app/api/common/redis"
)

var _ = Describe("New", func() {
	It("rejects a malformed url", func() {
		_, err := redis.New(context.Background(), "not a url")
		Expect(err).To(MatchError(ContainSubstring("parse redis url")))
	})
})
