package chatcmder

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fablehq/fable/pkg/logger"
)

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has --api-target flag with the default client target", func() {
		cmd := NewChatCmd()
		flag := cmd.Flags().Lookup("api-target")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("a"))
		Expect(flag.DefValue).To(Equal("http://localhost:8080"))
	})

	It("has --model flag defaulting to empty", func() {
		cmd := NewChatCmd()
		flag := cmd.Flags().Lookup("model")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("m"))
		Expect(flag.DefValue).To(Equal(""))
	})

	It("has --new flag", func() {
		cmd := NewChatCmd()
		flag := cmd.Flags().Lookup("new")
		Expect(flag).NotTo(BeNil())
	})
})

var _ = Describe("pickChoice", func() {
	choices := []string{"Go left", "Go right", "Wait"}

	It("resolves a menu number to the choice text", func() {
		Expect(pickChoice("1", choices)).To(Equal("Go left"))
		Expect(pickChoice("3", choices)).To(Equal("Wait"))
	})

	It("passes freeform text through verbatim", func() {
		Expect(pickChoice("climb the tree", choices)).To(Equal("climb the tree"))
	})

	It("treats out-of-range numbers as freeform text", func() {
		Expect(pickChoice("7", choices)).To(Equal("7"))
		Expect(pickChoice("0", choices)).To(Equal("0"))
	})

	It("handles an empty menu", func() {
		Expect(pickChoice("1", nil)).To(Equal("1"))
	})
})

var _ = Describe("streamPage", func() {
	newCommander := func(target string) *chatCommander {
		return &chatCommander{
			apiTarget: target,
			logger:    logger.New(),
		}
	}

	It("collects tokens and returns the done payload", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/chat/stream"))
			Expect(r.Method).To(Equal(http.MethodPost))

			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "event: thinking\ndata: {\"thinking\":true}\n\n")
			fmt.Fprint(w, "data: {\"token\":\"weighing the fork\"}\n\n")
			fmt.Fprint(w, "event: thinking\ndata: {\"thinking\":false}\n\n")
			fmt.Fprint(w, "data: {\"token\":\"Once\"}\n\n")
			fmt.Fprint(w, "data: {\"token\":\" upon\"}\n\n")
			fmt.Fprint(w, "event: done\ndata: {\"book_id\":\"b1\",\"page\":\"Once upon\",\"choices\":[\"Go on\",\"Turn back\"]}\n\n")
		}))
		defer server.Close()

		resp, err := newCommander(server.URL).streamPage("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.BookID).To(Equal("b1"))
		Expect(resp.Page).To(Equal("Once upon"))
		Expect(resp.Choices).To(Equal([]string{"Go on", "Turn back"}))
	})

	It("surfaces error events", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "event: error\ndata: {\"error\":\"upstream stream failed\"}\n\n")
		}))
		defer server.Close()

		_, err := newCommander(server.URL).streamPage("b1", "Go on")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("upstream stream failed"))
	})

	It("fails when the stream ends without a done event", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"token\":\"Once\"}\n\n")
		}))
		defer server.Close()

		_, err := newCommander(server.URL).streamPage("b1", "")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("done event"))
	})

	It("fails on non-200 responses", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newCommander(server.URL).streamPage("missing", "")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("404"))
	})
})

var _ = Describe("fetchBook", func() {
	It("parses the book document", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/books/b1"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":"b1","title":"The Hollow Door","pages":[{"text":"Page one.","choices":["Open it","Knock"]}]}`)
		}))
		defer server.Close()

		c := &chatCommander{apiTarget: server.URL, logger: logger.New()}
		book, err := c.fetchBook("b1")
		Expect(err).NotTo(HaveOccurred())
		Expect(book.Title).To(Equal("The Hollow Door"))
		Expect(book.Pages).To(HaveLen(1))
		Expect(book.Pages[0].Choices).To(Equal([]string{"Open it", "Knock"}))
	})

	It("fails for missing books", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
		}))
		defer server.Close()

		c := &chatCommander{apiTarget: server.URL, logger: logger.New()}
		_, err := c.fetchBook("missing")
		Expect(err).To(HaveOccurred())
	})
})
