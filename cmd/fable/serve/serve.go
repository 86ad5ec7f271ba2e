// Package servecmder provides the serve command for running the Fable API
// server.
package servecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fablehq/fable/api"
	"github.com/fablehq/fable/pkg/config"
	"github.com/fablehq/fable/pkg/dotdir"
	"github.com/fablehq/fable/pkg/eventstream"
	"github.com/fablehq/fable/pkg/eventstream/kafka"
	"github.com/fablehq/fable/pkg/eventstream/nop"
	"github.com/fablehq/fable/pkg/logger"
	"github.com/fablehq/fable/pkg/models"
	"github.com/fablehq/fable/pkg/persona"
	"github.com/fablehq/fable/pkg/prompt"
	"github.com/fablehq/fable/pkg/story"
	"github.com/fablehq/fable/pkg/story/inmemory"
	"github.com/fablehq/fable/pkg/story/jsonfile"
	"github.com/fablehq/fable/pkg/story/sqlite"
)

type serveCommander struct {
	listen        string
	upstream      string
	apiKey        string
	storageDriver string
	dataDir       string
	sqlitePath    string
	eventsEnabled bool
	eventsBrokers []string
	eventsTopic   string

	configDir string
	debug     bool
	logger    *slog.Logger
}

const serveLongDesc string = `Run the Fable API server.

The server generates narrative pages against the configured upstream model,
streams them to clients over SSE, and persists books, personas, and prompts
in the data directory.

Configuration precedence: CLI flags > FABLE_* environment variables >
config.toml > defaults.

Examples:
  fable serve
  fable serve --listen :9090 --upstream http://localhost:11434
  fable serve --storage-driver sqlite --sqlite ./fable.db`

const serveShortDesc string = "Run the Fable API server"

// serveFlagKeys are the registry flags bound into the viper precedence chain.
var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagUpstream,
	config.FlagStorageDriver,
	config.FlagDataDir,
	config.FlagSQLite,
	config.FlagEventsEnabled,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	var eventsBrokersFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlagKeys)

			cmder.listen = v.GetString("api.listen")
			cmder.upstream = v.GetString("llm.upstream")
			cmder.apiKey = v.GetString("llm.api_key")
			cmder.storageDriver = v.GetString("storage.driver")
			cmder.dataDir = v.GetString("storage.data_dir")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.eventsEnabled = v.GetBool("events.enabled")
			cmder.eventsBrokers = splitBrokers(v.GetStringSlice("events.brokers"))
			cmder.eventsTopic = v.GetString("events.topic")

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagDataDir, &cmder.dataDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddBoolFlag(cmd, config.Flags, config.FlagEventsEnabled, &cmder.eventsEnabled)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &eventsBrokersFlag)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	ddm := dotdir.NewManager()

	dataDir := c.dataDir
	if dataDir == "" {
		var err error
		dataDir, err = ddm.DataDir(c.configDir)
		if err != nil {
			return fmt.Errorf("resolving data dir: %w", err)
		}
	} else if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	books, err := c.newBookStore(dataDir)
	if err != nil {
		return err
	}
	defer books.Close()

	personas, err := persona.NewStore(dataDir, c.logger)
	if err != nil {
		return fmt.Errorf("creating persona store: %w", err)
	}

	prompts, err := prompt.NewStore(dataDir, c.logger)
	if err != nil {
		return fmt.Errorf("creating prompt store: %w", err)
	}
	defer prompts.Close()

	configTarget, err := ddm.Target(c.configDir)
	if err != nil {
		return fmt.Errorf("resolving config dir: %w", err)
	}
	catalog := models.NewManager(filepath.Join(configTarget, "models.toml"), c.logger)

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	server := api.NewServer(
		api.Config{
			ListenAddr: c.listen,
			Upstream:   c.upstream,
			APIKey:     c.apiKey,
		},
		api.Stores{
			Books:     books,
			Personas:  personas,
			Prompts:   prompts,
			Models:    catalog,
			Publisher: publisher,
		},
		c.logger,
	)

	c.logger.Info("starting fable server",
		"listen", c.listen,
		"upstream", c.upstream,
		"storage", c.storageDriver,
		"data_dir", dataDir,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// newBookStore builds the configured story.Store driver.
func (c *serveCommander) newBookStore(dataDir string) (story.Store, error) {
	switch c.storageDriver {
	case "sqlite":
		path := c.sqlitePath
		if path == "" {
			path = filepath.Join(dataDir, "fable.db")
		}
		store, err := sqlite.New(path)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite book store: %w", err)
		}
		c.logger.Info("using sqlite book store", "path", path)
		return store, nil

	case "inmemory":
		c.logger.Info("using in-memory book store")
		return inmemory.New(), nil

	default:
		dir := filepath.Join(dataDir, "books")
		store, err := jsonfile.New(dir, c.logger)
		if err != nil {
			return nil, fmt.Errorf("creating jsonfile book store: %w", err)
		}
		c.logger.Info("using jsonfile book store", "dir", dir)
		return store, nil
	}
}

// newPublisher builds the page event publisher: Kafka when events are
// enabled, a no-op otherwise.
func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	if !c.eventsEnabled {
		return nop.NewPublisher(), nil
	}

	publisher, err := kafka.NewPublisher(c.eventsBrokers, c.eventsTopic)
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}

	c.logger.Info("publishing page events to kafka",
		"brokers", c.eventsBrokers,
		"topic", c.eventsTopic,
	)

	return publisher, nil
}

// splitBrokers normalizes broker addresses: entries may arrive as a TOML
// array, or as a single comma-separated flag/env value.
func splitBrokers(entries []string) []string {
	var brokers []string
	for _, entry := range entries {
		for _, broker := range strings.Split(entry, ",") {
			broker = strings.TrimSpace(broker)
			if broker != "" {
				brokers = append(brokers, broker)
			}
		}
	}
	return brokers
}
