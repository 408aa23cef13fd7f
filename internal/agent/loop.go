package agent

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/asem-pro/maqal/internal/stream"
	"github.com/asem-pro/maqal/internal/telemetry"
	"github.com/asem-pro/maqal/provider"
)

// Outcome is the terminal state of a session.
type Outcome string

const (
	OutcomeFinalAnswer     Outcome = "final_answer"
	OutcomeBudgetExhausted Outcome = "budget_exhausted"
	OutcomeFailed          Outcome = "failed"
)

// DefaultMaxSteps bounds latency and cost per session. Budget exhaustion
// is a soft success: whatever was streamed so far stands.
const DefaultMaxSteps = 10

// Runner drives one model conversation through the tool loop: ask the
// model for the next action, execute at most one tool call, fold the
// compact result back, repeat until a final answer or the step budget.
type Runner struct {
	model    provider.Model
	tools    *Toolset
	logger   *log.Logger
	metrics  *telemetry.Telemetry
	maxSteps int
}

func NewRunner(model provider.Model, tools *Toolset, logger *log.Logger, metrics *telemetry.Telemetry, maxSteps int) *Runner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Runner{model: model, tools: tools, logger: logger, metrics: metrics, maxSteps: maxSteps}
}

// Run executes the session to completion and closes its emitter. Exactly
// one of done or error terminates the stream; nothing is emitted after it.
func (r *Runner) Run(ctx context.Context, sess *Session) Outcome {
	start := time.Now()
	sess.Emitter.Emit(stream.KindStatus, StatusEvent{Message: statusAnalyzing})

	outcome := r.loop(ctx, sess)

	sess.Emitter.Emit(stream.KindStatus, StatusEvent{Message: statusFinished})
	if outcome == OutcomeFailed {
		sess.Emitter.Emit(stream.KindError, ErrorEvent{Message: errGenericArabic})
	} else {
		sess.Emitter.Emit(stream.KindDone, DoneEvent{Success: true})
	}
	sess.Emitter.Close()

	r.metrics.RecordSession(string(outcome), time.Since(start))
	r.logger.Printf("session %s finished: %s after %d steps", sess.ID, outcome, sess.Steps)
	return outcome
}

func (r *Runner) loop(ctx context.Context, sess *Session) Outcome {
	for sess.Steps < r.maxSteps {
		sess.Steps++
		r.metrics.RecordStep()

		assistant, err := r.model.Next(ctx, sess.Messages, ToolDefinitions())
		if err != nil {
			r.logger.Printf("session %s: model error at step %d: %v", sess.ID, sess.Steps, err)
			return OutcomeFailed
		}

		if len(assistant.ToolCalls) == 0 {
			sess.Messages = append(sess.Messages, assistant)
			if assistant.Content != "" {
				sess.Emitter.Emit(stream.KindChat, ChatEvent{Message: assistant.Content})
			}
			return OutcomeFinalAnswer
		}

		// One tool call per step; anything beyond the first is dropped
		// before the turn enters the context so the transcript stays
		// consistent with what was actually executed.
		assistant.ToolCalls = assistant.ToolCalls[:1]
		sess.Messages = append(sess.Messages, assistant)

		call := assistant.ToolCalls[0]
		result := r.tools.Dispatch(ctx, call)
		body, err := json.Marshal(result)
		if err != nil {
			r.logger.Printf("session %s: tool result marshal error: %v", sess.ID, err)
			return OutcomeFailed
		}
		sess.Messages = append(sess.Messages, provider.ToolResultMessage(call.ID, string(body)))
	}
	return OutcomeBudgetExhausted
}
