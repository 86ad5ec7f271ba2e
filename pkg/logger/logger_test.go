package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fablehq/fable/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("creates a default text logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("hello", "key", "value")

			output := buf.String()
			Expect(output).To(ContainSubstring("hello"))
			Expect(output).To(ContainSubstring("key"))
			Expect(output).To(ContainSubstring("value"))
		})

		It("respects debug level", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
			l.Debug("debug msg")

			Expect(buf.String()).To(ContainSubstring("debug msg"))
		})

		It("filters debug when not enabled", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(false))
			l.Debug("hidden")

			Expect(buf.String()).To(BeEmpty())
		})

		It("creates a JSON logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("structured", "count", 42)

			var parsed map[string]any
			err := json.Unmarshal(buf.Bytes(), &parsed)
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed["msg"]).To(Equal("structured"))
			Expect(parsed["count"]).To(BeNumerically("==", 42))
		})

		It("creates a pretty logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
			l.Info("pretty output")

			Expect(buf.String()).To(ContainSubstring("pretty output"))
		})

		It("supports multiple writers", func() {
			var buf1, buf2 bytes.Buffer
			l := logger.New(logger.WithWriters(&buf1, &buf2))
			l.Info("multi")

			Expect(buf1.String()).To(ContainSubstring("multi"))
			Expect(buf2.String()).To(ContainSubstring("multi"))
		})

		It("returns *slog.Logger", func() {
			l := logger.New()
			Expect(l.Handler()).NotTo(BeNil())
		})
	})

	Describe("Multi", func() {
		It("dispatches records to every handler", func() {
			var text, structured bytes.Buffer
			l := logger.Multi(
				logger.New(logger.WithWriter(&text)),
				logger.New(logger.WithWriter(&structured), logger.WithJSON(true)),
			)
			l.Info("fan out")

			Expect(text.String()).To(ContainSubstring("fan out"))
			Expect(structured.String()).To(ContainSubstring("fan out"))
		})

		It("respects per-handler levels", func() {
			var debugBuf, infoBuf bytes.Buffer
			l := logger.Multi(
				logger.New(logger.WithWriter(&debugBuf), logger.WithDebug(true)),
				logger.New(logger.WithWriter(&infoBuf)),
			)
			l.Debug("verbose")

			Expect(debugBuf.String()).To(ContainSubstring("verbose"))
			Expect(infoBuf.String()).To(BeEmpty())
		})

		It("propagates attrs to all handlers", func() {
			var buf bytes.Buffer
			base := logger.Multi(logger.New(logger.WithWriter(&buf)))
			child := base.With("request_id", "abc123")
			child.Info("tagged")

			Expect(buf.String()).To(ContainSubstring("abc123"))
		})

		It("reports enabled when any handler is enabled", func() {
			var buf bytes.Buffer
			l := logger.Multi(
				logger.New(logger.WithWriter(&buf)),
				logger.New(logger.WithWriter(&buf), logger.WithDebug(true)),
			)

			Expect(l.Handler().Enabled(context.Background(), slog.LevelDebug)).To(BeTrue())
		})
	})

	Describe("WithSource", func() {
		It("includes the caller location", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithSource(true))
			l.Info("located")

			Expect(strings.Contains(buf.String(), "logger_test.go")).To(BeTrue())
		})
	})
})
