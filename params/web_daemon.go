package params

type WebDaemonConfig struct {
	ListenerConfig

	// DataDir holds the bolt results store served by the daemon.
	DataDir string

	// Token, if set, is required as a bearer token to process grids over HTTP.
	Token string `json:"-"`

	// CacheSize bounds the recently completed grids kept in memory
	// and replayed to new websocket clients.
	CacheSize int

	// Pipeline configures grids processed through the HTTP API.
	// Nil uses DefaultPipelineConfig.
	Pipeline *PipelineConfig `json:"-"`
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3000",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir:        DatadirRoot,
		ListenerConfig: DefaultWebListenerConfig(),
		CacheSize:      CacheGridResultsSize,
		Pipeline:       DefaultPipelineConfig(),
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir: "",
		ListenerConfig: ListenerConfig{
			Network: "tcp",
			Address: "localhost:3333",
		},
		CacheSize: 8,
		Pipeline:  DefaultPipelineConfig(),
	}
}
