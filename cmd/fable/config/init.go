package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fablehq/fable/pkg/cliui"
	"github.com/fablehq/fable/pkg/config"
)

const initLongDesc string = `Initialize config.toml from a provider preset.

Writes a fully-populated config.toml to the .fable/ directory with sane
defaults for the named provider. Existing values are overwritten.

Examples:
  fable config init ollama
  fable config init openai`

const initShortDesc string = "Initialize config.toml from a provider preset"

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <preset>",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runInit(args[0], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidPresetNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runInit(preset, configDir string) error {
	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return fmt.Errorf("%w\n\nValid presets: %s",
			err, strings.Join(config.ValidPresetNames(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfger.GetTarget() == "" {
		return fmt.Errorf("no .fable/ directory found; create one with mkdir .fable (or ~/.fable)")
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("\n  %s Wrote %s preset to %s\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(preset),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)
	return nil
}
