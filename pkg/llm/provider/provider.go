// Package provider resolves provider names to their llm.Provider
// implementations.
package provider

import (
	"fmt"
	"strings"

	"github.com/fablehq/fable/pkg/llm"
	"github.com/fablehq/fable/pkg/llm/provider/ollama"
	"github.com/fablehq/fable/pkg/llm/provider/openai"
)

// ForName returns the Provider implementation for the given canonical name.
// Returns an error for unrecognized names.
func ForName(name string) (llm.Provider, error) {
	switch strings.ToLower(name) {
	case "ollama":
		return ollama.New(), nil
	case "openai":
		return openai.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q (available: %s)", name, strings.Join(Supported(), ", "))
	}
}

// Supported returns the list of recognized provider names.
func Supported() []string {
	return []string{"ollama", "openai"}
}
