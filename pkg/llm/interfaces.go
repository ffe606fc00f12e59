// Package llm provides language-model client functionality for the
// extraction and classification pipeline. Two providers are supported:
// OpenAI-compatible endpoints and Anthropic.
package llm

import "context"

// VisionRequest describes a single vision call. Exactly one of ImageURL or
// ImageData should be set; MediaType is required with ImageData.
type VisionRequest struct {
	Prompt        string
	SystemMessage string
	ImageURL      string
	ImageData     []byte
	MediaType     string
	Temperature   float32
	MaxTokens     int
}

// Client defines the interface for LLM operations used by the pipeline.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// GenerateResponse generates a chat completion for a text prompt.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float32) (string, error)

	// GenerateVisionResponse generates a completion for a prompt about an image.
	GenerateVisionResponse(ctx context.Context, req VisionRequest) (string, error)

	// Model returns the configured model name.
	Model() string

	// Provider returns the provider identifier ("openai" or "anthropic").
	Provider() string
}

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider    string // "openai" or "anthropic"
	BaseURL     string // Endpoint base URL; ignored by the Anthropic provider
	Model       string // Model for text calls
	VisionModel string // Model for vision calls; falls back to Model if empty
	APIKey      string // Optional for local OpenAI-compatible endpoints
}

func (c *Config) effectiveVisionModel() string {
	if c.VisionModel != "" {
		return c.VisionModel
	}
	return c.Model
}
