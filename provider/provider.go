package provider

import (
	"context"
	"encoding/json"
	"errors"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn in a model conversation.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // set on assistant turns that request a tool
	ToolCallID string     // set on tool-result turns
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolDefinition declares a callable tool to the model. Parameters is a
// JSON schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Model is the language-model capability. Next returns the assistant's
// next turn given the conversation and the declared tool set: either a
// tool request or a final text answer. GenerateObject runs the model in
// structured-output mode constrained to the given JSON schema.
type Model interface {
	Next(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, error)
	GenerateObject(ctx context.Context, prompt, schemaName string, schema map[string]any) (json.RawMessage, error)
}

// ImageSynthesizer is the image-generation capability. Generate returns
// the image as a base64 data URL.
type ImageSynthesizer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrRateLimited is the transient-failure signal reported by remote
// capabilities when they ask the caller to back off.
var ErrRateLimited = errors.New("provider: rate limited")

func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ToolResultMessage folds a tool's compact result back into the
// conversation, keyed by the call it answers.
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}
