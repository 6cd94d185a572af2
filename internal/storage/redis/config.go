package redis

// Config holds Redis connection settings.
type Config struct {
	// URL is a redis:// connection URL.
	URL string
	// PoolSize is the connection pool size.
	PoolSize int
	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int
}

// DefaultConfig returns sensible defaults for a small game server.
func DefaultConfig() Config {
	return Config{
		PoolSize:     10,
		MinIdleConns: 2,
	}
}
