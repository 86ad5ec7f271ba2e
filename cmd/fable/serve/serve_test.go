package servecmder

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("registers flags from the shared registry", func() {
		cmd := NewServeCmd()

		for _, name := range []string{
			"listen", "upstream",
			"storage-driver", "data-dir", "sqlite",
			"events-enabled", "events-brokers", "events-topic",
		} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), "missing flag %q", name)
		}
	})

	It("uses config defaults for flag values", func() {
		cmd := NewServeCmd()
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal(":8080"))
		Expect(cmd.Flags().Lookup("upstream").DefValue).To(Equal("http://localhost:11434"))
		Expect(cmd.Flags().Lookup("storage-driver").DefValue).To(Equal("jsonfile"))
	})
})

var _ = Describe("splitBrokers", func() {
	It("passes through discrete entries", func() {
		Expect(splitBrokers([]string{"k1:9092", "k2:9092"})).
			To(Equal([]string{"k1:9092", "k2:9092"}))
	})

	It("splits comma-separated entries", func() {
		Expect(splitBrokers([]string{"k1:9092,k2:9092"})).
			To(Equal([]string{"k1:9092", "k2:9092"}))
	})

	It("trims whitespace and drops empty entries", func() {
		Expect(splitBrokers([]string{" k1:9092 , ", "", "k2:9092"})).
			To(Equal([]string{"k1:9092", "k2:9092"}))
	})

	It("returns nil for no input", func() {
		Expect(splitBrokers(nil)).To(BeNil())
	})
})
