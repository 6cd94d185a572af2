package cli

// Config holds the client configuration.
type Config struct {
	// ServerAddr is the host:port of the game server.
	ServerAddr string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		ServerAddr: "127.0.0.1:4000",
	}
}
