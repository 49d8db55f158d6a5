package config

// ServerConfig holds configuration for the PetMS server.
type ServerConfig struct {
	Addr       string // Listen address (default ":8080")
	LogLevel   string // Log level: debug, info, warn, error
	LogFormat  string // Log format: text, json
	DBPath     string // SQLite database path (default ~/.petms/petms.db, ":memory:" for testing)
	UploadsDir string // Directory for owner photos (default ~/.petms/uploads)
	Secure     bool   // Set Secure on session cookies (behind HTTPS)
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
	}
}
