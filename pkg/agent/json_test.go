package agent_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fablehq/fable/pkg/agent"
)

var _ = Describe("JSON extraction", func() {
	Describe("ExtractJSON", func() {
		It("returns the object between the first { and last }", func() {
			raw, err := agent.ExtractJSON("Sure! Here it is:\n```json\n{\"a\":1}\n```\nEnjoy.")
			Expect(err).NotTo(HaveOccurred())
			Expect(raw).To(Equal(`{"a":1}`))
		})

		It("spans nested objects", func() {
			raw, err := agent.ExtractJSON(`prefix {"a":{"b":2}} suffix`)
			Expect(err).NotTo(HaveOccurred())
			Expect(raw).To(Equal(`{"a":{"b":2}}`))
		})

		It("errors when no object is present", func() {
			_, err := agent.ExtractJSON("no json here")
			Expect(err).To(MatchError(agent.ErrNoJSON))
		})

		It("errors when braces are reversed", func() {
			_, err := agent.ExtractJSON("} backwards {")
			Expect(err).To(MatchError(agent.ErrNoJSON))
		})
	})

	Describe("DecodeJSON", func() {
		type payload struct {
			Page string `json:"page"`
		}

		It("decodes clean JSON", func() {
			var out payload
			Expect(agent.DecodeJSON(`{"page":"hello"}`, &out)).To(Succeed())
			Expect(out.Page).To(Equal("hello"))
		})

		It("recovers from raw newlines inside string values", func() {
			var out payload
			Expect(agent.DecodeJSON("{\"page\":\"line one\nline two\"}", &out)).To(Succeed())
			Expect(out.Page).To(Equal("line one\nline two"))
		})

		It("fails on JSON that stays invalid after escaping", func() {
			var out payload
			Expect(agent.DecodeJSON(`{"page":}`, &out)).To(HaveOccurred())
		})
	})
})

var _ = Describe("PagePrompt", func() {
	It("asks for the first page when no choice is given", func() {
		prompt := agent.PagePrompt("", "")
		Expect(prompt).To(Equal("Let's begin the story. Generate the first page."))
	})

	It("includes the summary when present", func() {
		prompt := agent.PagePrompt("The hero left home.", "")
		Expect(prompt).To(ContainSubstring("Book summary so far:\nThe hero left home."))
		Expect(prompt).To(ContainSubstring("begin the story"))
	})

	It("continues from the reader's choice", func() {
		prompt := agent.PagePrompt("s", "Open the door")
		Expect(prompt).To(ContainSubstring("following the reader's choice: 'Open the door'."))
	})
})
