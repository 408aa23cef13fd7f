package agent

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/asem-pro/maqal/internal/stream"
	"github.com/asem-pro/maqal/provider"
)

// PointCount is the fixed number of sections in an article. Point position
// is the only identity later image events refer to, so it must stay stable
// from composition to delivery.
const PointCount = 4

// Article is the structured deliverable streamed to the client.
type Article struct {
	Title        string  `json:"title"`
	Introduction string  `json:"introduction"`
	Points       []Point `json:"points"`
	Conclusion   string  `json:"conclusion"`
}

// Point is one article section. ImagePrompt is an English description used
// to synthesize an illustration when ShouldHaveImage is set.
type Point struct {
	Heading         string `json:"heading"`
	Content         string `json:"content"`
	ImagePrompt     string `json:"imagePrompt"`
	ShouldHaveImage bool   `json:"shouldHaveImage"`
}

func (a *Article) Validate() error {
	if len(a.Points) != PointCount {
		return fmt.Errorf("article must have exactly %d points, got %d", PointCount, len(a.Points))
	}
	return nil
}

// Tool inputs and outputs. Failures cross the tool/loop boundary as data,
// never as errors.

type SearchInput struct {
	Query string `json:"query"`
}

type SearchOutput struct {
	Success bool   `json:"success"`
	Results string `json:"results"`
	Count   int    `json:"count"`
}

type ComposeInput struct {
	Topic         string `json:"topic"`
	SearchResults string `json:"searchResults"`
}

// PointNeedingImage is the compact per-point summary returned to the model
// so it can request one generate_image call per flagged point.
type PointNeedingImage struct {
	Index           int    `json:"index"`
	Heading         string `json:"heading"`
	ImagePrompt     string `json:"imagePrompt"`
	ShouldHaveImage bool   `json:"shouldHaveImage"`
}

type ComposeOutput struct {
	Success             bool                `json:"success"`
	Title               string              `json:"title,omitempty"`
	PointsCount         int                 `json:"pointsCount,omitempty"`
	PointsNeedingImages []PointNeedingImage `json:"pointsNeedingImages,omitempty"`
	Message             string              `json:"message,omitempty"`
}

type ImageInput struct {
	Prompt     string `json:"prompt"`
	PointIndex int    `json:"pointIndex"`
	Heading    string `json:"heading"`
}

type ImageOutput struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	PointIndex int    `json:"pointIndex"`
}

// Event payloads.

type StatusEvent struct {
	Message string `json:"message"`
}

type ChatEvent struct {
	Message string `json:"message"`
}

// ImageEvent carries the generated image straight to the client; the
// payload never travels through the model context.
type ImageEvent struct {
	PointIndex int    `json:"pointIndex"`
	ImageData  string `json:"imageData"`
	Heading    string `json:"heading"`
}

type DoneEvent struct {
	Success bool `json:"success"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

// Session is the ephemeral per-request state: one utterance, one emitter,
// one conversation. Discarded when the stream closes.
type Session struct {
	ID       string
	Input    string
	Steps    int
	Emitter  stream.Emitter
	Messages []provider.Message
}

func NewSession(input string, emitter stream.Emitter) *Session {
	return &Session{
		ID:      uuid.New().String(),
		Input:   input,
		Emitter: emitter,
		Messages: []provider.Message{
			provider.SystemMessage(Instructions),
			provider.UserMessage(input),
		},
	}
}
