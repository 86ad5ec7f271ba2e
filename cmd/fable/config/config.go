// Package configcmder provides the config command for managing persistent
// fable configuration stored in the .fable/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent fable configuration.

Configuration is stored as config.toml in the .fable/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.driver, storage.data_dir, storage.sqlite_path,
  llm.provider, llm.upstream, llm.model, llm.api_key,
  api.listen, client.api_target,
  events.enabled, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  fable config set <key> <value>    Set a configuration value
  fable config get <key>            Get a configuration value
  fable config list                 List all configuration values
  fable config init <preset>        Write a provider preset config

Examples:
  fable config set llm.provider ollama
  fable config set llm.upstream http://localhost:11434
  fable config get llm.model
  fable config list`

const configShortDesc string = "Manage persistent fable configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newInitCmd())

	return cmd
}
