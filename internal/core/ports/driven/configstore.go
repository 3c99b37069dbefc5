package driven

// ConfigStore reads and writes the persistent config file.
//
// Keys are dot-separated ("neo4j.uri", "embedding.dimensions"). Getters
// return the zero value when a key is absent or holds another type, so
// callers can layer the file over defaults without checking presence.
type ConfigStore interface {
	// GetString returns a string value.
	GetString(key string) string

	// GetInt returns an integer value. Numeric strings are parsed.
	GetInt(key string) int

	// GetStringSlice returns a list value. A single string becomes a
	// one-element slice.
	GetStringSlice(key string) []string

	// Set stores a value and persists the file immediately.
	Set(key string, value any) error

	// Path returns the config file location.
	Path() string
}
