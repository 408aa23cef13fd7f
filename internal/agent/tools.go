package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/asem-pro/maqal/internal/retry"
	"github.com/asem-pro/maqal/internal/stream"
	"github.com/asem-pro/maqal/internal/telemetry"
	"github.com/asem-pro/maqal/provider"
	"github.com/asem-pro/maqal/tools/websearch"
)

// Toolset executes the tool contracts for one session. Every tool emits
// its own client events through the session's emitter and returns a
// data-shaped result; no tool error ever crosses back into the loop.
type Toolset struct {
	model    provider.Model
	searcher websearch.Searcher
	images   provider.ImageSynthesizer
	emitter  stream.Emitter
	logger   *log.Logger
	metrics  *telemetry.Telemetry
	backoff  retry.Policy
}

func NewToolset(model provider.Model, searcher websearch.Searcher, images provider.ImageSynthesizer, emitter stream.Emitter, logger *log.Logger, metrics *telemetry.Telemetry) *Toolset {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	t := &Toolset{
		model:    model,
		searcher: searcher,
		images:   images,
		emitter:  emitter,
		logger:   logger,
		metrics:  metrics,
	}
	t.backoff = retry.DefaultPolicy(func(err error) bool {
		if provider.IsRateLimited(err) {
			metrics.RecordRemoteRetry()
			return true
		}
		return false
	})
	return t
}

// toolError is the data-shaped failure returned for undispatchable calls
// (unknown tool name, malformed arguments).
type toolError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Dispatch routes one model-requested tool call to its contract and
// returns the compact result destined for the model context.
func (t *Toolset) Dispatch(ctx context.Context, call provider.ToolCall) any {
	switch call.Name {
	case ToolSearchWeb:
		var in SearchInput
		if err := json.Unmarshal(call.Arguments, &in); err != nil {
			return toolError{Message: malformedArgsError}
		}
		return t.searchWeb(ctx, in)
	case ToolGenerateArticle:
		var in ComposeInput
		if err := json.Unmarshal(call.Arguments, &in); err != nil {
			return toolError{Message: malformedArgsError}
		}
		return t.generateArticle(ctx, in)
	case ToolGenerateImage:
		var in ImageInput
		if err := json.Unmarshal(call.Arguments, &in); err != nil {
			return toolError{Message: malformedArgsError}
		}
		return t.generateImage(ctx, in)
	default:
		return toolError{Message: fmt.Sprintf(unknownToolFmt, call.Name)}
	}
}

// searchWeb gathers ranked snippets and folds them into one bounded digest.
func (t *Toolset) searchWeb(ctx context.Context, in SearchInput) SearchOutput {
	t.logger.Printf("searching for: %s", in.Query)
	t.emitter.Emit(stream.KindStatus, StatusEvent{Message: statusSearching})

	results, err := t.searcher.Search(ctx, in.Query, searchResultCount)
	if err != nil {
		t.logger.Printf("search error: %v", err)
		t.metrics.RecordTool(ToolSearchWeb, false)
		return SearchOutput{Success: false, Results: searchUnavailable, Count: 0}
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		blocks = append(blocks, fmt.Sprintf("Title: %s\nContent: %s", title, truncate(r.Snippet, searchExcerptChars)))
	}
	digest := truncate(strings.Join(blocks, searchDelimiter), searchDigestChars)
	if digest == "" {
		digest = noResultsFound
	}

	t.emitter.Emit(stream.KindStatus, StatusEvent{Message: fmt.Sprintf(statusSearchedFmt, len(results))})
	t.metrics.RecordTool(ToolSearchWeb, true)
	return SearchOutput{Success: true, Results: digest, Count: len(results)}
}

// generateArticle composes the structured article and streams it to the
// client immediately. Only the compact summary goes back to the model.
func (t *Toolset) generateArticle(ctx context.Context, in ComposeInput) ComposeOutput {
	t.logger.Printf("generating article for: %s", in.Topic)
	t.emitter.Emit(stream.KindStatus, StatusEvent{Message: statusComposing})

	raw, err := t.model.GenerateObject(ctx, composePrompt(in.Topic, in.SearchResults), articleSchemaName, articleSchema())
	if err != nil {
		t.logger.Printf("article generation error: %v", err)
		t.metrics.RecordTool(ToolGenerateArticle, false)
		return ComposeOutput{Success: false, Message: composeFailed}
	}

	var article Article
	if err := json.Unmarshal(raw, &article); err != nil {
		t.logger.Printf("article decode error: %v", err)
		t.metrics.RecordTool(ToolGenerateArticle, false)
		return ComposeOutput{Success: false, Message: composeFailed}
	}
	if err := article.Validate(); err != nil {
		t.logger.Printf("article rejected: %v", err)
		t.metrics.RecordTool(ToolGenerateArticle, false)
		return ComposeOutput{Success: false, Message: composeFailed}
	}

	// Full content reaches the client here and only here.
	t.emitter.Emit(stream.KindArticle, article)
	t.emitter.Emit(stream.KindStatus, StatusEvent{Message: statusComposed})

	out := ComposeOutput{Success: true, Title: article.Title, PointsCount: len(article.Points)}
	for i, p := range article.Points {
		if !p.ShouldHaveImage {
			continue
		}
		out.PointsNeedingImages = append(out.PointsNeedingImages, PointNeedingImage{
			Index:           i,
			Heading:         p.Heading,
			ImagePrompt:     p.ImagePrompt,
			ShouldHaveImage: true,
		})
	}
	t.metrics.RecordTool(ToolGenerateArticle, true)
	return out
}

// generateImage synthesizes one illustration and streams it to the client,
// keyed by point position. The payload bypasses the model context.
func (t *Toolset) generateImage(ctx context.Context, in ImageInput) ImageOutput {
	t.logger.Printf("generating image for: %s", in.Heading)
	t.emitter.Emit(stream.KindStatus, StatusEvent{Message: fmt.Sprintf(statusImagingFmt, in.Heading)})

	prompt := truncate(in.Prompt, imagePromptChars)
	imageData, err := retry.Do(ctx, t.backoff, func(ctx context.Context) (string, error) {
		return t.images.Generate(ctx, prompt)
	})
	if err != nil || imageData == "" {
		if err != nil {
			t.logger.Printf("image generation error: %v", err)
		}
		t.metrics.RecordTool(ToolGenerateImage, false)
		return ImageOutput{Success: false, Message: fmt.Sprintf(imageFailedFmt, in.Heading), PointIndex: in.PointIndex}
	}

	t.emitter.Emit(stream.KindImage, ImageEvent{PointIndex: in.PointIndex, ImageData: imageData, Heading: in.Heading})
	t.metrics.RecordTool(ToolGenerateImage, true)
	return ImageOutput{Success: true, Message: fmt.Sprintf(imageGeneratedFmt, in.Heading), PointIndex: in.PointIndex}
}
