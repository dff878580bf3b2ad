package driven

// ConfigStore holds settings under dotted keys such as "dedup.enabled".
// Typed getters return the zero value for a missing key or a value of
// another type; GetFloat also accepts integers.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores value under key and persists it before returning.
	Set(key string, value any) error
}
