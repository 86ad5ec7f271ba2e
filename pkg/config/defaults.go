package config

const (
	defaultStorageDriver = "jsonfile"

	defaultLLMProvider = "ollama"
	defaultLLMUpstream = "http://localhost:11434"
	defaultLLMModel    = "llama3.2"

	defaultAPIListen = ":8080"

	defaultClientAPITarget = "http://localhost:8080"

	defaultEventsTopic = "fable.pages"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		LLM: LLMConfig{
			Provider: defaultLLMProvider,
			Upstream: defaultLLMUpstream,
			Model:    defaultLLMModel,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Events: EventsConfig{
			Enabled: false,
			Topic:   defaultEventsTopic,
		},
	}
}
