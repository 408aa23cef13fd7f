package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/asem-pro/maqal/internal/agent"
	"github.com/asem-pro/maqal/internal/stream"
	"github.com/asem-pro/maqal/provider"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// agentRequest accepts either a single message or a prior conversation;
// with a conversation, the last user message is the active request.
type agentRequest struct {
	Message  string        `json:"message"`
	Messages []chatMessage `json:"messages"`
}

// handleAgent runs one agent session over a line-framed response stream.
// Events are flushed as they happen; the connection closes after the
// terminal done or error record.
func (s *Server) handleAgent(c echo.Context) error {
	var req agentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	input, history := splitConversation(req)
	if strings.TrimSpace(input) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("X-Accel-Buffering", "no")
	resp.WriteHeader(http.StatusOK)

	emitter := stream.NewLineEmitter(resp, s.logger)
	sess := agent.NewSession(input, emitter)
	if len(history) > 0 {
		msgs := make([]provider.Message, 0, len(history)+2)
		msgs = append(msgs, sess.Messages[0])
		msgs = append(msgs, history...)
		msgs = append(msgs, sess.Messages[1])
		sess.Messages = msgs
	}

	tools := agent.NewToolset(s.model, s.searcher, s.images, emitter, s.logger, s.metrics)
	runner := agent.NewRunner(s.model, tools, s.logger, s.metrics, s.cfg.Agent.MaxSteps)
	runner.Run(c.Request().Context(), sess)
	return nil
}

// splitConversation picks the active user message and the preceding turns.
// Only user and assistant turns are carried over; the system prompt is
// always ours.
func splitConversation(req agentRequest) (string, []provider.Message) {
	if len(req.Messages) == 0 {
		return req.Message, nil
	}

	last := -1
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == provider.RoleUser {
			last = i
			break
		}
	}
	if last == -1 {
		return "", nil
	}

	var history []provider.Message
	for _, m := range req.Messages[:last] {
		switch m.Role {
		case provider.RoleUser, provider.RoleAssistant:
			history = append(history, provider.Message{Role: m.Role, Content: m.Content})
		}
	}
	return req.Messages[last].Content, history
}
