// Package llm provides the model-assisted discovery strategies: JSON schema
// discovery, ATS pattern detection, and direct HTML-to-job extraction. The
// model is one interchangeable strategy among several and is expected to fail
// often; callers must treat its output as an opinion, not ground truth.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ModelTier selects the capability level used for a task.
type ModelTier string

const (
	// TierLite handles simple classification and pattern spotting.
	TierLite ModelTier = "lite"
	// TierStandard handles structured extraction.
	TierStandard ModelTier = "standard"
)

// Config holds the model name per tier.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
	}
}

// Model returns the model name for a tier, falling back to standard.
func (c *Config) Model(tier ModelTier) string {
	if m, ok := c.Models[tier]; ok {
		return m
	}
	return c.Models[TierStandard]
}

// Client is an abstraction over the inference runtime.
type Client interface {
	// GenerateJSON runs a prompt expected to produce a JSON document.
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// Close releases the runtime's resources.
	Close() error
}

// GeminiClient implements Client on the Gemini API.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a client. The API key is required.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &NotLoadedError{Reason: "API key is required"}
	}
	if config == nil {
		config = DefaultConfig()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &NotLoadedError{Reason: "failed to create Gemini client", Cause: err}
	}
	return &GeminiClient{client: client, config: config}, nil
}

// GenerateJSON generates a JSON document from a prompt.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.Model(tier)
	if modelName == "" {
		return "", &NotFoundError{Tier: string(tier)}
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.1) // consistency over creativity
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &InferenceError{Message: "generation failed", Cause: err}
	}

	text, err := textFromResponse(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &InferenceError{Message: "no candidates in response"}
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &InferenceError{Message: "no content in response"}
	}
	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", &InferenceError{Message: "no text parts in response"}
	}
	return strings.Join(parts, ""), nil
}

// CleanJSONBlock strips markdown code fences models wrap JSON in even when
// told not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return strings.TrimSpace(text)
}

// truncate bounds a sample passed to the model.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return fmt.Sprintf("%s\n...[truncated %d bytes]", s[:max], len(s)-max)
}
