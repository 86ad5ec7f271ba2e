package story_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fablehq/fable/pkg/story"
)

var _ = Describe("Book", func() {
	Describe("NewBook", func() {
		It("generates an ID and stamps timestamps", func() {
			book := story.NewBook("The Hollow Crown")
			Expect(book.ID).NotTo(BeEmpty())
			Expect(book.Title).To(Equal("The Hollow Crown"))
			Expect(book.CreatedAt).NotTo(BeZero())
			Expect(book.UpdatedAt).NotTo(BeZero())
			Expect(book.Pages).To(BeEmpty())
		})

		It("derives an untitled placeholder from the ID", func() {
			book := story.NewBook("")
			Expect(book.Title).To(HavePrefix("Untitled Book ("))
			Expect(book.Title).To(ContainSubstring(book.ID[:8]))
		})

		It("generates unique IDs", func() {
			a := story.NewBook("a")
			b := story.NewBook("b")
			Expect(a.ID).NotTo(Equal(b.ID))
		})
	})

	Describe("AddPage", func() {
		It("appends pages and tracks the count", func() {
			book := story.NewBook("test")
			book.AddPage(story.Page{Text: "first", Choices: []string{"go left", "go right"}})
			book.AddPage(story.Page{Text: "second"})

			Expect(book.NumPages).To(Equal(2))
			Expect(book.Pages[0].Text).To(Equal("first"))
			Expect(book.Pages[1].Choices).To(Equal([]string{}))
		})
	})

	Describe("ReplaceLastPage", func() {
		It("overwrites the most recent page", func() {
			book := story.NewBook("test")
			book.AddPage(story.Page{Text: "draft"})
			book.ReplaceLastPage(story.Page{Text: "final", Choices: []string{"continue"}})

			Expect(book.NumPages).To(Equal(1))
			Expect(book.Pages[0].Text).To(Equal("final"))
			Expect(book.Pages[0].Choices).To(Equal([]string{"continue"}))
		})

		It("falls back to appending when the book is empty", func() {
			book := story.NewBook("test")
			book.ReplaceLastPage(story.Page{Text: "first"})

			Expect(book.NumPages).To(Equal(1))
			Expect(book.Pages[0].Text).To(Equal("first"))
		})
	})

	Describe("CurrentChoices", func() {
		It("returns the latest page's choices", func() {
			book := story.NewBook("test")
			book.AddPage(story.Page{Text: "p1", Choices: []string{"a"}})
			book.AddPage(story.Page{Text: "p2", Choices: []string{"b", "c"}})

			Expect(book.CurrentChoices()).To(Equal([]string{"b", "c"}))
		})

		It("returns nil for an empty book", func() {
			Expect(story.NewBook("test").CurrentChoices()).To(BeNil())
		})
	})

	Describe("PageTexts", func() {
		It("returns page texts in order", func() {
			book := story.NewBook("test")
			book.AddPage(story.Page{Text: "one"})
			book.AddPage(story.Page{Text: "two"})

			Expect(book.PageTexts()).To(Equal([]string{"one", "two"}))
		})
	})

	Describe("metadata helpers", func() {
		It("records characters with defaults", func() {
			book := story.NewBook("test")
			book.AddPage(story.Page{Text: "p1"})
			book.AddCharacter("Mira", "a wandering cartographer", "")

			Expect(book.Characters).To(HaveLen(1))
			Expect(book.Characters[0].Role).To(Equal("character"))
			Expect(book.Characters[0].FirstAppearance).To(Equal(1))
		})

		It("records key events with a default category", func() {
			book := story.NewBook("test")
			book.AddKeyEvent("the bridge collapses", 3, "")

			Expect(book.KeyEvents).To(HaveLen(1))
			Expect(book.KeyEvents[0].Category).To(Equal("plot"))
			Expect(book.KeyEvents[0].PageNumber).To(Equal(3))
		})

		It("records timeline entries", func() {
			book := story.NewBook("test")
			book.AddTimelineEntry("dawn of the third day", 5, "morning")

			Expect(book.Timeline).To(HaveLen(1))
			Expect(book.Timeline[0].TimeReference).To(Equal("morning"))
		})

		It("updates settings lazily", func() {
			book := story.NewBook("test")
			Expect(book.Settings).To(BeNil())

			book.UpdateSetting("tone", "grim")
			Expect(book.Settings).To(HaveKeyWithValue("tone", "grim"))
		})
	})
})

var _ = Describe("ErrNotFound", func() {
	It("includes the ID when present", func() {
		Expect(story.ErrNotFound{ID: "b-1"}.Error()).To(Equal("book not found: b-1"))
	})

	It("has a generic message without an ID", func() {
		Expect(story.ErrNotFound{}.Error()).To(Equal("book not found"))
	})
})
