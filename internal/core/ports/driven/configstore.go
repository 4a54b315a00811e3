package driven

// ConfigStore provides persistent key-value configuration.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" if missing.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 if missing.
	GetInt(key string) int

	// GetFloat retrieves a float value, or 0 if missing.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value, or false if missing.
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice value, or nil if missing.
	GetStringSlice(key string) []string

	// Set stores a configuration value.
	Set(key string, value any) error

	// Save persists the configuration.
	Save() error
}
