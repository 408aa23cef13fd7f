package openai_provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/asem-pro/maqal/provider"
)

// Options configures the OpenAI-backed capabilities.
type Options struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	ImageModel  string
	ImageSize   string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client implements provider.Model and provider.ImageSynthesizer on the
// official openai-go SDK.
type Client struct {
	api    openai.Client
	opts   Options
	logger *log.Logger
}

func New(opts Options, logger *log.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key not configured")
	}
	if opts.ChatModel == "" {
		opts.ChatModel = "gpt-4o-mini"
	}
	if opts.ImageModel == "" {
		opts.ImageModel = "dall-e-3"
	}
	if opts.ImageSize == "" {
		// closest supported size to the 16:9 aspect the articles use
		opts.ImageSize = "1792x1024"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[OPENAI] ", log.LstdFlags)
	}
	ro := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithRequestTimeout(opts.Timeout),
		// Rate-limit handling belongs to the caller's retry policy.
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		ro = append(ro, option.WithBaseURL(opts.BaseURL))
	}
	return &Client{api: openai.NewClient(ro...), opts: opts, logger: logger}, nil
}

// Next asks the model for its next turn given the conversation and tool set.
func (c *Client) Next(ctx context.Context, messages []provider.Message, tools []provider.ToolDefinition) (provider.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.opts.ChatModel),
		Messages: toChatMessages(messages),
	}
	if c.opts.Temperature > 0 {
		params.Temperature = openai.Float(c.opts.Temperature)
	}
	if c.opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.opts.MaxTokens))
	}
	for _, t := range tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  shared.FunctionParameters(t.Parameters),
			},
		})
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return provider.Message{}, wrapRateLimit(err)
	}
	if len(resp.Choices) == 0 {
		return provider.Message{}, errors.New("openai: empty choices")
	}

	msg := resp.Choices[0].Message
	out := provider.Message{Role: provider.RoleAssistant, Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, provider.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

// GenerateObject runs a single completion constrained to the given JSON
// schema and returns the raw object.
func (c *Client) GenerateObject(ctx context.Context, prompt, schemaName string, schema map[string]any) (json.RawMessage, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.opts.ChatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Schema: schema,
					Strict: openai.Bool(true),
				},
			},
		},
	}
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapRateLimit(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, errors.New("openai: empty structured output")
	}
	return json.RawMessage(resp.Choices[0].Message.Content), nil
}

// Generate synthesizes one image and returns it as a PNG data URL.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(c.opts.ImageModel),
		Size:           openai.ImageGenerateParamsSize(c.opts.ImageSize),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		N:              openai.Int(1),
	})
	if err != nil {
		return "", wrapRateLimit(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", errors.New("openai: no image in response")
	}
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

func toChatMessages(messages []provider.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case provider.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case provider.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			asst := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				asst.Content.OfString = openai.String(m.Content)
			}
			for _, tc := range m.ToolCalls {
				asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case provider.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func wrapRateLimit(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) && apierr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", provider.ErrRateLimited, err)
	}
	return err
}
