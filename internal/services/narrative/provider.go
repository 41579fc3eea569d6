// -----------------------------------------------------------------------
// Providers - Claude and Gemini memo writers
// -----------------------------------------------------------------------

package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/praedium/internal/common"
)

const (
	defaultClaudeModel = "claude-haiku-3-5-20241022"
	defaultGeminiModel = "gemini-3-flash-preview"
	defaultMaxTokens   = 4096
)

// memoSystemPrompt frames every narrative request; the caller's prompt
// carries the research data.
const memoSystemPrompt = "You are a real estate investment analyst writing a concise internal memo. " +
	"Ground every claim in the data provided. Cite sources as markdown links when URLs are given. " +
	"Never invent facts, prices, or addresses that are not in the data."

// writer is the per-provider generation seam
type writer interface {
	generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	model() string
}

// normalizeModel strips a provider prefix from the model name
func normalizeModel(model string) string {
	for _, prefix := range []string{"claude/", "anthropic/", "gemini/", "google/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// ----- Claude -----

type claudeWriter struct {
	client      anthropic.Client
	modelName   string
	maxTokens   int
	temperature float32
	retry       retryConfig
	logger      arbor.ILogger
}

func newClaudeWriter(config *common.ClaudeConfig, logger arbor.ILogger) *claudeWriter {
	modelName := normalizeModel(config.Model)
	if modelName == "" {
		modelName = defaultClaudeModel
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &claudeWriter{
		client:      anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: config.Temperature,
		retry:       defaultRetryConfig(),
		logger:      logger,
	}
}

func (w *claudeWriter) model() string { return w.modelName }

func (w *claudeWriter) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = w.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(w.modelName),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: memoSystemPrompt},
		},
	}
	if w.temperature > 0 {
		params.Temperature = anthropic.Float(float64(w.temperature))
	}

	var resp *anthropic.Message
	var apiErr error

	for attempt := 0; attempt <= w.retry.MaxRetries; attempt++ {
		resp, apiErr = w.client.Messages.New(ctx, params)
		if apiErr == nil {
			break
		}
		if attempt == w.retry.MaxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second
		if isRateLimitError(apiErr) {
			backoff = w.retry.backoff(attempt, extractRetryDelay(apiErr))
		}

		w.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("Claude API call failed after %d retries: %w", w.retry.MaxRetries, apiErr)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}
	return text.String(), nil
}

// ----- Gemini -----

type geminiWriter struct {
	client      *genai.Client
	modelName   string
	temperature float32
	retry       retryConfig
	logger      arbor.ILogger
}

func newGeminiWriter(config *common.GeminiConfig, logger arbor.ILogger) (*geminiWriter, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	modelName := normalizeModel(config.Model)
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	return &geminiWriter{
		client:      client,
		modelName:   modelName,
		temperature: config.Temperature,
		retry:       defaultRetryConfig(),
		logger:      logger,
	}, nil
}

func (w *geminiWriter) model() string { return w.modelName }

func (w *geminiWriter) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(memoSystemPrompt, genai.RoleUser),
	}
	if w.temperature > 0 {
		config.Temperature = genai.Ptr(w.temperature)
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	var resp *genai.GenerateContentResponse
	var apiErr error

	for attempt := 0; attempt <= w.retry.MaxRetries; attempt++ {
		resp, apiErr = w.client.Models.GenerateContent(ctx, w.modelName, contents, config)
		if apiErr == nil {
			break
		}
		if attempt == w.retry.MaxRetries {
			break
		}

		var backoff time.Duration
		if isRateLimitError(apiErr) {
			backoff = w.retry.backoff(attempt, extractRetryDelay(apiErr))
		} else {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		w.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Gemini API call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("Gemini API call failed after %d retries: %w", w.retry.MaxRetries, apiErr)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}
	return text, nil
}
