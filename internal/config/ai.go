package config

import "os"

// AIConfig holds the question-generation provider configuration
type AIConfig struct {
	APIKey    string `json:"-"` // Never serialize
	BaseURL   string `json:"baseUrl"`
	Model     string `json:"model"`
	TimeoutMS int    `json:"timeoutMs"`
}

// DefaultAIConfig returns the default generation configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:    os.Getenv("GEMINI_API_KEY"),
		BaseURL:   getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
		Model:     getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		TimeoutMS: 10000, // generation slower than this counts as failure
	}
}

// IsEnabled returns true if the generation API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full generateContent endpoint for the model
func (c *AIConfig) ModelEndpoint() string {
	return c.BaseURL + "/" + c.Model + ":generateContent"
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
