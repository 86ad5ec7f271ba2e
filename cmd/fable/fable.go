// Package fablecmder
package fablecmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/fablehq/fable/cmd/fable/chat"
	configcmder "github.com/fablehq/fable/cmd/fable/config"
	servecmder "github.com/fablehq/fable/cmd/fable/serve"
	versioncmder "github.com/fablehq/fable/cmd/version"
)

const fableLongDesc string = `Fable generates interactive, choose-your-own-adventure narratives
by streaming pages from an LLM, one reader choice at a time.

Run services using:
  fable serve          Run the API server
  fable chat           Read a book interactively from the terminal
  fable config         Manage persistent configuration`

const fableShortDesc string = "Fable - Interactive Narrative Server"

func NewFableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fable",
		Short: fableShortDesc,
		Long:  fableLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default: ./.fable or ~/.fable)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
