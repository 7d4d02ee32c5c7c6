package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sweetpotato0/docsum/llm"
	"google.golang.org/api/option"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-1.5-flash"

// Config holds Gemini provider configuration
type Config struct {
	APIKey string
	// BaseURL overrides the Generative Language API endpoint.
	BaseURL string
	Model   string
	// Timeout bounds one GenerateContent call; zero leaves it to ctx.
	Timeout time.Duration
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig() *Config {
	return &Config{Model: DefaultModel}
}

// Provider implements llm.Client on the generateContent API.
type Provider struct {
	config *Config
	client *genai.Client
}

var _ llm.Client = (*Provider)(nil)

// New creates a Gemini provider. The caller owns the returned provider and
// must Close it.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}

	options := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if strings.TrimSpace(config.BaseURL) != "" {
		options = append(options, option.WithEndpoint(config.BaseURL))
	}

	client, err := genai.NewClient(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Provider{config: config, client: client}, nil
}

// Name implements llm.Client.
func (p *Provider) Name() string {
	return "gemini"
}

// Complete implements llm.Client.
func (p *Provider) Complete(ctx context.Context, req *llm.Request) (string, error) {
	if req == nil {
		return "", fmt.Errorf("completion request cannot be nil")
	}
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	// A model handle per call; SystemInstruction differs between requests.
	model := p.client.GenerativeModel(p.config.Model)
	model.SetCandidateCount(1)
	if req.Temperature >= 0 {
		model.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned from Gemini: %w", llm.ErrEmptyResponse)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}
