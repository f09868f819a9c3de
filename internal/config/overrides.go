package config

import "strings"

// Overrides holds command-line values that take precedence over the file
// and environment. Empty fields leave the loaded value untouched.
type Overrides struct {
	Engine      string
	ComputeType string
	Language    string
	LogLevel    string
}

// Apply sets every non-empty override and revalidates the config.
func (c *Config) Apply(o Overrides) error {
	if v := strings.TrimSpace(o.Engine); v != "" {
		c.Transcription.Engine = strings.ToLower(v)
	}
	if v := strings.TrimSpace(o.ComputeType); v != "" {
		c.Transcription.ComputeType = strings.ToLower(v)
	}
	if v := strings.TrimSpace(o.Language); v != "" {
		c.Transcription.Language = v
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	return c.Validate()
}
