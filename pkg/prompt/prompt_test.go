package prompt_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fablehq/fable/pkg/prompt"
)

var _ = Describe("Store", func() {
	var tmpDir string
	var store *prompt.Store
	var ctx context.Context

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "prompt-test-*")
		Expect(err).NotTo(HaveOccurred())

		store, err = prompt.NewStore(tmpDir, nil)
		Expect(err).NotTo(HaveOccurred())

		ctx = context.Background()
	})

	AfterEach(func() {
		store.Close()
		os.RemoveAll(tmpDir)
	})

	It("seeds default prompts on first start", func() {
		text, err := store.Get(ctx, prompt.ModeStory)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(ContainSubstring("choose-your-own-adventure"))

		text, err = store.Get(ctx, prompt.ModeChat)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(ContainSubstring("persona"))
	})

	It("does not overwrite an existing prompt on restart", func() {
		Expect(store.Set(ctx, prompt.ModeStory, "custom narrator prompt")).To(Succeed())
		store.Close()

		reopened, err := prompt.NewStore(tmpDir, nil)
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()

		text, err := reopened.Get(ctx, prompt.ModeStory)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("custom narrator prompt"))
	})

	It("round-trips Set and Get", func() {
		Expect(store.Set(ctx, prompt.ModeChat, "talk like a pirate")).To(Succeed())

		text, err := store.Get(ctx, prompt.ModeChat)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("talk like a pirate"))
	})

	It("writes prompts to mode-scoped paths", func() {
		Expect(store.Set(ctx, prompt.ModeStory, "narrator")).To(Succeed())

		data, err := os.ReadFile(filepath.Join(tmpDir, "story", "prompts", "system.md"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("narrator"))
	})

	It("rejects unknown modes", func() {
		_, err := store.Get(ctx, prompt.Mode("poetry"))
		Expect(err).To(MatchError(prompt.ErrUnknownMode))

		err = store.Set(ctx, prompt.Mode("poetry"), "x")
		Expect(err).To(MatchError(prompt.ErrUnknownMode))
	})

	It("picks up outside edits to the prompt file", func() {
		// Prime the cache.
		_, err := store.Get(ctx, prompt.ModeStory)
		Expect(err).NotTo(HaveOccurred())

		// Edit the file behind the store's back.
		path := filepath.Join(tmpDir, "story", "prompts", "system.md")
		Expect(os.WriteFile(path, []byte("edited on disk"), 0o644)).To(Succeed())

		// The watcher invalidates the cache asynchronously.
		Eventually(func() string {
			text, _ := store.Get(ctx, prompt.ModeStory)
			return text
		}).Should(Equal("edited on disk"))
	})
})
