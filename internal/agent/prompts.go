package agent

import (
	"fmt"

	"github.com/asem-pro/maqal/provider"
)

// Tool names as declared to the model.
const (
	ToolSearchWeb       = "search_web"
	ToolGenerateArticle = "generate_article"
	ToolGenerateImage   = "generate_image"
)

// Content budgets. Search excerpts and digests are capped so the model
// context stays bounded no matter what the providers return.
const (
	searchResultCount  = 5
	searchExcerptChars = 800
	searchDigestChars  = 5000
	composeDigestChars = 4000
	imagePromptChars   = 200
)

// Instructions is the system prompt driving the tool loop. The final
// answer must be a short confirmation: full content reaches the client
// only through article and image events.
const Instructions = `You are an AI assistant that helps users create articles in Arabic.

You have these tools:
1. search_web - Search the internet for information
2. generate_article - Create a structured article (returns points that need images)
3. generate_image - Generate an image for a specific article point

When user asks to create an article:
1. Use search_web to find information about the topic
2. Use generate_article to write the article based on search results
3. Check the result for pointsNeedingImages and use generate_image for EACH point that needs an image

IMPORTANT: After creating an article, DO NOT repeat or summarize the article content in your response.
Just say a short confirmation like "تم إنشاء المقال بنجاح! يمكنك مشاهدته على اليمين."
NEVER include the article text, points, or any content from the article in your chat response.

For chat/greetings, respond directly without tools.
Always respond in Arabic.`

// Client-visible progress strings.
const (
	statusAnalyzing  = "جاري تحليل الطلب..."
	statusSearching  = "جاري البحث..."
	statusComposing  = "جاري كتابة المقال..."
	statusComposed   = "تم إنشاء المقال!"
	statusFinished   = "تم الانتهاء!"
	errGenericArabic = "حدث خطأ في معالجة الطلب"

	searchUnavailable  = "Search unavailable"
	composeFailed      = "Failed to generate article"
	noResultsFound     = "No results found"
	articleSchemaName  = "article"
	searchDelimiter    = "\n---\n"
	statusSearchedFmt  = "تم البحث! وجدت %d نتائج"
	statusImagingFmt   = "جاري توليد صورة: %s..."
	imageGeneratedFmt  = "Image generated successfully for %q"
	imageFailedFmt     = "Failed to generate image for %q"
	unknownToolFmt     = "Unknown tool %q"
	malformedArgsError = "Malformed tool arguments"
)

func composePrompt(topic, digest string) string {
	return fmt.Sprintf(`اكتب مقال احترافي عن: %s

نتائج البحث:
%s

المطلوب:
- عنوان جذاب
- مقدمة شيقة
- 4 نقاط رئيسية (كل نقطة لها عنوان ومحتوى تفصيلي ووصف صورة بالإنجليزية)
- خاتمة ملخصة
- اجعل shouldHaveImage=true لنقطتين فقط من الأربع نقاط`, topic, truncate(digest, composeDigestChars))
}

// articleSchema is the JSON schema the compose call is constrained to:
// exactly four points, every field required.
func articleSchema() map[string]any {
	point := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"heading":         map[string]any{"type": "string"},
			"content":         map[string]any{"type": "string"},
			"imagePrompt":     map[string]any{"type": "string", "description": "Image description in English"},
			"shouldHaveImage": map[string]any{"type": "boolean"},
		},
		"required":             []string{"heading", "content", "imagePrompt", "shouldHaveImage"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":        map[string]any{"type": "string"},
			"introduction": map[string]any{"type": "string"},
			"points": map[string]any{
				"type":     "array",
				"items":    point,
				"minItems": PointCount,
				"maxItems": PointCount,
			},
			"conclusion": map[string]any{"type": "string"},
		},
		"required":             []string{"title", "introduction", "points", "conclusion"},
		"additionalProperties": false,
	}
}

// ToolDefinitions declares the tool set offered to the model on every step.
func ToolDefinitions() []provider.ToolDefinition {
	return []provider.ToolDefinition{
		{
			Name:        ToolSearchWeb,
			Description: "Search the web for information about a topic. Use this to gather information before writing an article.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "The search query to find information about"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        ToolGenerateArticle,
			Description: "Generate a structured article in Arabic. Use AFTER searching for information.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"topic":         map[string]any{"type": "string", "description": "The article topic to write about"},
					"searchResults": map[string]any{"type": "string", "description": "Search results to base the article on"},
				},
				"required": []string{"topic", "searchResults"},
			},
		},
		{
			Name:        ToolGenerateImage,
			Description: "Generate an image for an article point. Call this for each point that needs an image.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"prompt":     map[string]any{"type": "string", "description": "Image description in English"},
					"pointIndex": map[string]any{"type": "integer", "description": "Index of the article point (0-3)"},
					"heading":    map[string]any{"type": "string", "description": "Heading of the point for display purposes"},
				},
				"required": []string{"prompt", "pointIndex", "heading"},
			},
		},
	}
}

// truncate caps s at n runes without splitting a multi-byte character.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
