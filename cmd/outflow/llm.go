package main

import (
	"os"

	"github.com/spf13/viper"
)

// resolveAPIKey finds the classifier credential: explicit config first,
// then the provider's conventional environment variable.
func resolveAPIKey(provider string) string {
	if key := viper.GetString("llm.api_key"); key != "" {
		return key
	}

	switch provider {
	case "gemini":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}
