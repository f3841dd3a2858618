package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1000"`
	Temperature        float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("openrouter api key is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("openrouter model is required")
	}
	return nil
}

// Message is one chat turn in provider-neutral form.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client is a thin chat-completion wrapper over the OpenAI SDK pointed
// at an OpenRouter-compatible endpoint.
type Client struct {
	api   *openaisdk.Client
	model string

	maxTokens   int64
	temperature float64
}

func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	// OpenRouter attribution headers
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
	}

	api := openaisdk.NewClient(opts...)
	return &Client{
		api:         &api,
		model:       strings.TrimSpace(cfg.Model),
		maxTokens:   int64(cfg.MaxCompletionToken),
		temperature: cfg.Temperature,
	}, nil
}

// Chat sends the messages and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.model),
		Messages:    toSDKMessages(messages),
		Temperature: openaisdk.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openaisdk.Int(c.maxTokens)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openrouter: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openrouter: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func toSDKMessages(messages []Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openaisdk.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openaisdk.AssistantMessage(m.Content))
		default:
			out = append(out, openaisdk.UserMessage(m.Content))
		}
	}
	return out
}
