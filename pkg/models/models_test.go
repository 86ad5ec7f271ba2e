package models_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fablehq/fable/pkg/models"
)

const sampleCatalog = `default_model = "mistral-wild"

[models.mistral-wild]
name = "Mistral Wild"
provider = "ollama"
model_name = "mistral"
description = "High-temperature storytelling"
content_level = "spicy"
temperature = 1.1
tags = ["creative", "wild"]

[models.gpt-careful]
name = "GPT Careful"
provider = "openai"
model_name = "gpt-4o-mini"
description = "Low-temperature, precise prose"
content_level = "mild"
temperature = 0.3
tags = ["precise"]
prompt_modifier = "Keep the tone gentle."
`

var _ = Describe("Manager", func() {
	var tmpDir string
	var catalogPath string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "models-test-*")
		Expect(err).NotTo(HaveOccurred())

		catalogPath = filepath.Join(tmpDir, "models.toml")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Context("with a valid catalog file", func() {
		var m *models.Manager

		BeforeEach(func() {
			Expect(os.WriteFile(catalogPath, []byte(sampleCatalog), 0o644)).To(Succeed())
			m = models.NewManager(catalogPath, nil)
		})

		It("loads all presets with the table key as ID", func() {
			all := m.All()
			Expect(all).To(HaveLen(2))
			Expect(all[0].ID).To(Equal("gpt-careful"))
			Expect(all[1].ID).To(Equal("mistral-wild"))
		})

		It("looks up presets by ID", func() {
			model, ok := m.Get("gpt-careful")
			Expect(ok).To(BeTrue())
			Expect(model.Provider).To(Equal("openai"))
			Expect(model.Temperature).To(Equal(0.3))
			Expect(model.PromptModifier).To(Equal("Keep the tone gentle."))
		})

		It("returns the configured default", func() {
			Expect(m.Default().ID).To(Equal("mistral-wild"))
		})

		It("filters by content level", func() {
			filtered := m.Filter("mild", nil)
			Expect(filtered).To(HaveLen(1))
			Expect(filtered[0].ID).To(Equal("gpt-careful"))
		})

		It("filters by tags", func() {
			filtered := m.Filter("", []string{"wild", "nonexistent"})
			Expect(filtered).To(HaveLen(1))
			Expect(filtered[0].ID).To(Equal("mistral-wild"))
		})

		It("reloads the catalog on Refresh", func() {
			updated := sampleCatalog + `
[models.new-arrival]
name = "New Arrival"
provider = "ollama"
model_name = "llama3.2"
description = "Fresh preset"
content_level = "mild"
temperature = 0.5
`
			Expect(os.WriteFile(catalogPath, []byte(updated), 0o644)).To(Succeed())

			m.Refresh()

			_, ok := m.Get("new-arrival")
			Expect(ok).To(BeTrue())
		})
	})

	Context("with a missing or broken catalog", func() {
		It("falls back to the built-in preset when the file is missing", func() {
			m := models.NewManager(filepath.Join(tmpDir, "nope.toml"), nil)

			all := m.All()
			Expect(all).To(HaveLen(1))
			Expect(all[0].ID).To(Equal("llama-balanced"))
			Expect(m.Default().ID).To(Equal("llama-balanced"))
		})

		It("falls back when the file is unparseable", func() {
			Expect(os.WriteFile(catalogPath, []byte("not toml [[["), 0o644)).To(Succeed())

			m := models.NewManager(catalogPath, nil)
			Expect(m.Default().ID).To(Equal("llama-balanced"))
		})

		It("falls back when the catalog defines no models", func() {
			Expect(os.WriteFile(catalogPath, []byte(`default_model = "x"`), 0o644)).To(Succeed())

			m := models.NewManager(catalogPath, nil)
			Expect(m.Default().ID).To(Equal("llama-balanced"))
		})
	})

	Context("default resolution", func() {
		It("falls back to any model when the default ID is unknown", func() {
			catalog := `default_model = "ghost"

[models.only-one]
name = "Only One"
provider = "ollama"
model_name = "llama3.2"
description = "The only preset"
content_level = "mild"
temperature = 0.7
`
			Expect(os.WriteFile(catalogPath, []byte(catalog), 0o644)).To(Succeed())

			m := models.NewManager(catalogPath, nil)
			Expect(m.Default().ID).To(Equal("only-one"))
		})
	})
})
