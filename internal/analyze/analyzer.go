// Package analyze turns a harvested notice into a long-form analysis
// report using the Gemini API. The model fetches the notice URL itself
// via the URL-context tool, so no page body is scraped here.
package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"bdo-watch/patchwatch/internal/models"
)

// Analyzer produces analysis text for a scraped notice. Failures and
// empty results are both treated by callers as "no report produced".
type Analyzer interface {
	Analyze(ctx context.Context, item models.ScrapedItem) (string, error)
}

// GeminiAnalyzer implements Analyzer against the Gemini API.
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

// NewGeminiAnalyzer creates the client eagerly so a bad key fails at
// startup rather than mid-cycle.
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiAnalyzer{client: client, model: model}, nil
}

// Analyze asks the model to fetch and analyze the notice URL. Returns
// an error for API failures and for empty responses.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, item models.ScrapedItem) (string, error) {
	prompt := buildPrompt(item)

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	tools := []*genai.Tool{
		{URLContext: &genai.URLContext{}},
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		Tools: tools,
	})
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty analysis for %s", item.URL)
	}

	log.Debug().
		Str("source", item.Source).
		Str("patch_id", item.PatchID).
		Int("chars", len(text)).
		Msg("Generated analysis")
	return text, nil
}
