// Package openai provides a MentionExtractor implementation using OpenAI.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/memoirist/memoir-core/internal/domain/ports"
	"github.com/memoirist/memoir-core/internal/infrastructure/config"
)

const extractionPrompt = `You are a name extractor for personal memoirs. Find every mention of a person in the given text.

A mention is any name-like reference: full names, first names, nicknames, pet names, and relational references like "ma femme" or "leur mère" when they are attached to a name.

For each mention, return:
- text: the exact text of the mention as it appears
- start_index: the character offset where the mention starts (0-based)
- end_index: the character offset just past the end of the mention

Do not report the narrator ("I", "je", "moi"). Report every occurrence separately, in the order they appear.

Return ONLY a valid JSON array, no other text.

Example:
Input: "Ma femme Caro et moi sommes allés voir Tom."
Output: [
  {"text": "Caro", "start_index": 9, "end_index": 13},
  {"text": "Tom", "start_index": 40, "end_index": 43}
]`

// Extractor implements the MentionExtractor interface using OpenAI.
type Extractor struct {
	client *openai.Client
	model  string
}

// NewExtractor creates a new OpenAI mention extractor.
func NewExtractor(cfg config.LLMConfig) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	client := openai.NewClient(cfg.APIKey)

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Extractor{
		client: client,
		model:  model,
	}, nil
}

// ExtractMentions finds name-like spans in the given text. Known aliases
// are appended to the prompt as hints so established nicknames are not
// missed. Malformed spans in the model output are dropped and counted in
// the result rather than failing the call.
func (e *Extractor) ExtractMentions(ctx context.Context, text string, knownAliases []string) (*ports.ExtractionResult, error) {
	userContent := text
	if len(knownAliases) > 0 {
		userContent = fmt.Sprintf("Known names for this narrator: %s\n\nText:\n%s",
			strings.Join(knownAliases, ", "), text)
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: extractionPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userContent,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	return parseSpans(resp.Choices[0].Message.Content)
}

// rawSpan is the JSON structure for extracted spans.
type rawSpan struct {
	Text       string `json:"text"`
	StartIndex *int   `json:"start_index"`
	EndIndex   *int   `json:"end_index"`
}

// parseSpans parses the model output into a tagged extraction result.
// An element missing its text is unrecoverable and counted as dropped;
// missing offsets are recoverable downstream (the resolver re-locates the
// text), so the span is kept with zeroed offsets and the result is marked
// partial. A completely unparseable response is an error.
func parseSpans(content string) (*ports.ExtractionResult, error) {
	content = cleanJSONResponse(content)

	var raw []rawSpan
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parsing spans JSON: %w (response: %s)", err, content)
	}

	result := &ports.ExtractionResult{
		Spans: make([]ports.RawSpan, 0, len(raw)),
	}
	for _, r := range raw {
		if strings.TrimSpace(r.Text) == "" {
			result.Dropped++
			result.Partial = true
			continue
		}
		span := ports.RawSpan{Text: r.Text}
		if r.StartIndex != nil && r.EndIndex != nil {
			span.StartIndex = *r.StartIndex
			span.EndIndex = *r.EndIndex
		} else {
			span.EndIndex = -1 // force offset recovery downstream
			result.Partial = true
		}
		result.Spans = append(result.Spans, span)
	}
	return result, nil
}

// cleanJSONResponse removes markdown code blocks if present.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}
