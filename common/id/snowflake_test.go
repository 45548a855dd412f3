package id_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatassist.app/api/common/id"
)

var _ = Describe("snowflake ids", func() {
	BeforeEach(func() {
		Expect(id.Init(1)).To(Succeed())
	})

	It("generates increasing ids", func() {
		a := id.New()
		b := id.New()
		Expect(b).To(BeNumerically(">", a))
	})

	It("round-trips through Format and Parse", func() {
		v := id.New()
		parsed, err := id.Parse(id.Format(v))
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(Equal(v))
	})

	DescribeTable("rejects malformed ids",
		func(in string) {
			_, err := id.Parse(in)
			Expect(err).To(MatchError(id.ErrInvalid))
		},
		Entry("empty", ""),
		Entry("non-numeric", "abc"),
		Entry("negative", "-4"),
		Entry("zero", "0"),
		Entry("object id", "65f1c2a9e4b0a1b2c3d4e5f6"),
	)
})
