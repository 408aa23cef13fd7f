package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/asem-pro/maqal/internal/stream"
	"github.com/asem-pro/maqal/provider"
	"github.com/asem-pro/maqal/tools/websearch"
)

// recordingEmitter captures events in emission order.
type recordingEmitter struct {
	mu     sync.Mutex
	events []stream.Event
	closed bool
}

func (r *recordingEmitter) Emit(kind string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.events = append(r.events, stream.Event{Kind: kind, Payload: payload})
}

func (r *recordingEmitter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *recordingEmitter) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// fakeModel scripts both the tool-loop turns and structured output.
type fakeModel struct {
	next   func(step int, messages []provider.Message) (provider.Message, error)
	object func() (json.RawMessage, error)
	steps  int
}

func (m *fakeModel) Next(_ context.Context, messages []provider.Message, _ []provider.ToolDefinition) (provider.Message, error) {
	m.steps++
	return m.next(m.steps, messages)
}

func (m *fakeModel) GenerateObject(context.Context, string, string, map[string]any) (json.RawMessage, error) {
	if m.object == nil {
		return nil, fmt.Errorf("no structured output scripted")
	}
	return m.object()
}

type fakeSearcher struct {
	results []websearch.Result
	err     error
	queries []string
}

func (s *fakeSearcher) Search(_ context.Context, q string, k int) ([]websearch.Result, error) {
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.results) > k {
		return s.results[:k], nil
	}
	return s.results, nil
}

type fakeSynthesizer struct {
	data    string
	errs    []error // consumed per call before data is returned
	prompts []string
}

func (s *fakeSynthesizer) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return s.data, nil
}

func toolCallMessage(id, name string, args any) provider.Message {
	body, _ := json.Marshal(args)
	return provider.Message{
		Role:      provider.RoleAssistant,
		ToolCalls: []provider.ToolCall{{ID: id, Name: name, Arguments: body}},
	}
}

func finalMessage(text string) provider.Message {
	return provider.Message{Role: provider.RoleAssistant, Content: text}
}

func sampleArticleJSON(flagged ...int) json.RawMessage {
	shouldHave := map[int]bool{}
	for _, i := range flagged {
		shouldHave[i] = true
	}
	points := make([]Point, PointCount)
	for i := range points {
		points[i] = Point{
			Heading:         fmt.Sprintf("نقطة %d", i+1),
			Content:         fmt.Sprintf("محتوى النقطة %d", i+1),
			ImagePrompt:     fmt.Sprintf("illustration %d", i+1),
			ShouldHaveImage: shouldHave[i],
		}
	}
	body, _ := json.Marshal(Article{
		Title:        "الذكاء الاصطناعي",
		Introduction: "مقدمة",
		Points:       points,
		Conclusion:   "خاتمة",
	})
	return body
}
