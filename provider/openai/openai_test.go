package openai_provider

import (
	"encoding/json"
	"net/http"
	"testing"

	openai "github.com/openai/openai-go"

	"github.com/asem-pro/maqal/provider"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Options{}, nil); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestToChatMessagesReplaysToolCalls(t *testing.T) {
	args := json.RawMessage(`{"query":"الذكاء"}`)
	messages := []provider.Message{
		provider.SystemMessage("system prompt"),
		provider.UserMessage("اكتب مقال"),
		{
			Role:      provider.RoleAssistant,
			ToolCalls: []provider.ToolCall{{ID: "call_1", Name: "search_web", Arguments: args}},
		},
		provider.ToolResultMessage("call_1", `{"success":true}`),
		{Role: provider.RoleAssistant, Content: "تم"},
	}

	out := toChatMessages(messages)
	if len(out) != len(messages) {
		t.Fatalf("expected %d params, got %d", len(messages), len(out))
	}
	if out[0].OfSystem == nil || out[1].OfUser == nil {
		t.Fatalf("system/user turns not mapped: %+v", out[:2])
	}

	asst := out[2].OfAssistant
	if asst == nil {
		t.Fatalf("assistant tool-call turn not mapped")
	}
	if len(asst.ToolCalls) != 1 {
		t.Fatalf("expected 1 replayed tool call, got %d", len(asst.ToolCalls))
	}
	tc := asst.ToolCalls[0]
	if tc.ID != "call_1" || tc.Function.Name != "search_web" || tc.Function.Arguments != string(args) {
		t.Fatalf("tool call not preserved: %+v", tc)
	}

	tool := out[3].OfTool
	if tool == nil || tool.ToolCallID != "call_1" {
		t.Fatalf("tool result turn not keyed to its call: %+v", out[3])
	}

	final := out[4].OfAssistant
	if final == nil || len(final.ToolCalls) != 0 {
		t.Fatalf("plain assistant turn mis-mapped: %+v", out[4])
	}
}

func TestWrapRateLimit(t *testing.T) {
	limited := wrapRateLimit(&openai.Error{StatusCode: http.StatusTooManyRequests})
	if !provider.IsRateLimited(limited) {
		t.Fatalf("429 not mapped to rate-limit signal: %v", limited)
	}

	plain := wrapRateLimit(&openai.Error{StatusCode: http.StatusBadRequest})
	if provider.IsRateLimited(plain) {
		t.Fatalf("400 must not be treated as rate limit: %v", plain)
	}
}
