package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fablehq/fable/pkg/story"
)

var _ = Describe("Book handlers", func() {
	var ts *testServer
	var ctx context.Context

	BeforeEach(func() {
		ts = newTestServer("http://localhost:0")
		ctx = context.Background()
	})

	AfterEach(func() {
		ts.cleanup()
	})

	doJSON := func(method, path string, out any) *http.Response {
		req := httptest.NewRequest(method, path, nil)
		resp, err := ts.server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		if out != nil {
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(body, out)).To(Succeed())
		}
		return resp
	}

	It("answers ping", func() {
		var body string
		resp := doJSON(http.MethodGet, "/ping", &body)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(Equal("pong"))
	})

	It("lists books as the list-view projection", func() {
		book, err := ts.books.Create(ctx, "The Hollow Lighthouse")
		Expect(err).NotTo(HaveOccurred())
		book.AddPage(story.Page{Text: "Page one."})
		Expect(ts.books.Save(ctx, book)).To(Succeed())

		var infos []BookInfo
		resp := doJSON(http.MethodGet, "/api/books", &infos)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(infos).To(HaveLen(1))
		Expect(infos[0].Title).To(Equal("The Hollow Lighthouse"))
		Expect(infos[0].NumPages).To(Equal(1))
	})

	It("returns the full book document", func() {
		book, err := ts.books.Create(ctx, "Tides")
		Expect(err).NotTo(HaveOccurred())

		var got story.Book
		resp := doJSON(http.MethodGet, "/api/books/"+book.ID, &got)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(got.ID).To(Equal(book.ID))
		Expect(got.Title).To(Equal("Tides"))
	})

	It("404s unknown books", func() {
		var errResp ErrorResponse
		resp := doJSON(http.MethodGet, "/api/books/nope", &errResp)
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		Expect(errResp.Error).To(Equal("book not found"))
	})

	It("deletes books", func() {
		book, err := ts.books.Create(ctx, "Gone")
		Expect(err).NotTo(HaveOccurred())

		resp := doJSON(http.MethodDelete, "/api/books/"+book.ID, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		_, err = ts.books.Get(ctx, book.ID)
		Expect(err).To(HaveOccurred())
	})

	It("404s deleting an unknown book", func() {
		resp := doJSON(http.MethodDelete, "/api/books/nope", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("serves the running summary", func() {
		book, err := ts.books.Create(ctx, "Summarized")
		Expect(err).NotTo(HaveOccurred())
		book.Summary = "- The hero sets out"
		Expect(ts.books.Save(ctx, book)).To(Succeed())

		var got map[string]string
		resp := doJSON(http.MethodGet, "/api/books/"+book.ID+"/summary", &got)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(got["summary"]).To(Equal("- The hero sets out"))
	})

	It("404s an empty summary", func() {
		book, err := ts.books.Create(ctx, "Blank")
		Expect(err).NotTo(HaveOccurred())

		resp := doJSON(http.MethodGet, "/api/books/"+book.ID+"/summary", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("serves page texts in order", func() {
		book, err := ts.books.Create(ctx, "Paged")
		Expect(err).NotTo(HaveOccurred())
		book.AddPage(story.Page{Text: "First."})
		book.AddPage(story.Page{Text: "Second."})
		Expect(ts.books.Save(ctx, book)).To(Succeed())

		var got map[string][]string
		resp := doJSON(http.MethodGet, "/api/books/"+book.ID+"/pages", &got)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(got["pages"]).To(Equal([]string{"First.", "Second."}))
	})
})
