// Package gemini suggests expense categories with the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"gitlab.com/yelinaung/savings-tracker/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

// DefaultModel is used unless WithModel picks another one.
const DefaultModel = "gemini-2.5-flash"

var errMissingAPIKey = errors.New("gemini API key is required")

// ContentGenerator is the subset of genai.Models the client calls.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client generates structured answers from Gemini.
type Client struct {
	generator ContentGenerator
	model     string
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// NewClient connects to the Gemini API with apiKey.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errMissingAPIKey
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return NewClientWithGenerator(gc.Models, opts...), nil
}

// NewClientWithGenerator builds a Client on top of an existing generator.
func NewClientWithGenerator(generator ContentGenerator, opts ...Option) *Client {
	c := &Client{generator: generator, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model the client asks.
func (c *Client) Model() string {
	return c.model
}

// generateText sends a single user prompt and returns the text of the answer.
func (c *Client) generateText(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if c == nil || c.generator == nil {
		return "", errNotInitialized
	}

	ctx, span := telemetry.StartSpan(ctx, "gemini.generate", attribute.String("gemini.model", c.model))
	defer span.End()

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.generator.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil {
		return "", errNoTextContent
	}

	text := resp.Text()
	if text == "" {
		return "", errNoTextContent
	}
	span.SetAttributes(attribute.Int("gemini.response_length", len(text)))
	return text, nil
}
