package persona_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fablehq/fable/pkg/persona"
)

var _ = Describe("Store", func() {
	var tmpDir string
	var store *persona.Store
	var ctx context.Context

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "persona-test-*")
		Expect(err).NotTo(HaveOccurred())

		store, err = persona.NewStore(tmpDir, nil)
		Expect(err).NotTo(HaveOccurred())

		ctx = context.Background()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("personas", func() {
		It("round-trips a persona", func() {
			created, err := store.CreatePersona(ctx, "Mira", "a wandering cartographer", []string{"curious", "stubborn"})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).NotTo(BeEmpty())

			got, err := store.GetPersona(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Mira"))
			Expect(got.Traits).To(Equal([]string{"curious", "stubborn"}))
		})

		It("defaults nil traits to an empty slice", func() {
			created, err := store.CreatePersona(ctx, "Mira", "", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Traits).To(Equal([]string{}))
		})

		It("returns ErrNotFound for a missing persona", func() {
			_, err := store.GetPersona(ctx, "no-such-id")
			Expect(err).To(BeAssignableToTypeOf(persona.ErrNotFound{}))
			Expect(err.Error()).To(ContainSubstring("persona not found"))
		})

		It("applies partial updates", func() {
			created, err := store.CreatePersona(ctx, "Mira", "original", nil)
			Expect(err).NotTo(HaveOccurred())

			newName := "Mira the Bold"
			updated, err := store.UpdatePersona(ctx, created.ID, &newName, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Mira the Bold"))
			Expect(updated.Description).To(Equal("original"))
		})

		It("lists personas and skips corrupt files", func() {
			_, err := store.CreatePersona(ctx, "good", "", nil)
			Expect(err).NotTo(HaveOccurred())

			corrupt := filepath.Join(tmpDir, "personas", "corrupt.json")
			Expect(os.WriteFile(corrupt, []byte("{broken"), 0o644)).To(Succeed())

			personas, err := store.ListPersonas(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(personas).To(HaveLen(1))
			Expect(personas[0].Name).To(Equal("good"))

			// The corrupt file gets moved aside to .bak.
			_, err = os.Stat(filepath.Join(tmpDir, "personas", "corrupt.bak"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("deletes personas", func() {
			created, err := store.CreatePersona(ctx, "doomed", "", nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(store.DeletePersona(ctx, created.ID)).To(Succeed())

			err = store.DeletePersona(ctx, created.ID)
			Expect(err).To(BeAssignableToTypeOf(persona.ErrNotFound{}))
		})
	})

	Describe("conversations", func() {
		var p *persona.Persona

		BeforeEach(func() {
			var err error
			p, err = store.CreatePersona(ctx, "Mira", "", nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("creates an empty conversation bound to a persona", func() {
			conv, err := store.CreateConversation(ctx, p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.PersonaID).To(Equal(p.ID))
			Expect(conv.Messages).To(BeEmpty())
		})

		It("rejects conversations for unknown personas", func() {
			_, err := store.CreateConversation(ctx, "no-such-persona")
			Expect(err).To(BeAssignableToTypeOf(persona.ErrNotFound{}))
		})

		It("persists appended messages", func() {
			conv, err := store.CreateConversation(ctx, p.ID)
			Expect(err).NotTo(HaveOccurred())

			conv.AddMessage("user", "hello")
			conv.AddMessage("persona", "well met, traveler")
			Expect(store.SaveConversation(ctx, conv)).To(Succeed())

			got, err := store.GetConversation(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Messages).To(HaveLen(2))
			Expect(got.Messages[1].Sender).To(Equal("persona"))
			Expect(got.UpdatedAt).NotTo(BeZero())
		})

		It("returns ErrNotFound for a missing conversation", func() {
			_, err := store.GetConversation(ctx, "no-such-id")
			Expect(err).To(BeAssignableToTypeOf(persona.ErrNotFound{}))
			Expect(err.Error()).To(ContainSubstring("conversation not found"))
		})

		It("rejects a nil conversation on save", func() {
			Expect(store.SaveConversation(ctx, nil)).NotTo(Succeed())
		})
	})
})
