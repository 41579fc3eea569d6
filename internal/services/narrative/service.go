// -----------------------------------------------------------------------
// Narrative - Investor-memo generation behind a fallible adapter
// -----------------------------------------------------------------------

package narrative

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/praedium/internal/common"
)

const defaultTimeout = 2 * time.Minute

// Service wraps one memo-writing provider. Generation is best-effort:
// an unconfigured service reports unavailable and the dossier worker
// composes the structured document instead.
type Service struct {
	writer  writer
	timeout time.Duration
	logger  arbor.ILogger
}

// NewService selects the provider named by llm.default_provider. When
// that provider has no API key the other one is used if configured;
// with no keys at all the service is returned unavailable.
func NewService(config *common.Config, logger arbor.ILogger) *Service {
	s := &Service{logger: logger, timeout: defaultTimeout}

	useClaude := config.LLM.DefaultProvider == common.LLMProviderClaude
	if useClaude && config.Claude.APIKey == "" && config.Gemini.APIKey != "" {
		useClaude = false
	}
	if !useClaude && config.Gemini.APIKey == "" && config.Claude.APIKey != "" {
		useClaude = true
	}

	switch {
	case useClaude && config.Claude.APIKey != "":
		s.writer = newClaudeWriter(&config.Claude, logger)
		s.timeout = parseTimeout(config.Claude.Timeout)
	case config.Gemini.APIKey != "":
		gemini, err := newGeminiWriter(&config.Gemini, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Gemini narrative provider unavailable")
			break
		}
		s.writer = gemini
		s.timeout = parseTimeout(config.Gemini.Timeout)
	default:
		logger.Info().Msg("No narrative provider configured, dossiers will use the structured fallback")
	}

	if s.writer != nil {
		logger.Info().
			Str("model", s.writer.model()).
			Dur("timeout", s.timeout).
			Msg("Narrative provider initialized")
	}
	return s
}

// Generate produces memo markdown from the prompt. The provider timeout
// bounds the call in addition to the caller's context.
func (s *Service) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if s.writer == nil {
		return "", fmt.Errorf("no narrative provider configured")
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.writer.generate(genCtx, prompt, maxTokens)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Narrative generation failed")
		return "", err
	}

	s.logger.Debug().
		Int("prompt_length", len(prompt)).
		Int("response_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Narrative generation completed")
	return text, nil
}

// IsAvailable reports whether a provider is configured
func (s *Service) IsAvailable() bool {
	return s != nil && s.writer != nil
}

// ModelName identifies the generating model for audit fields
func (s *Service) ModelName() string {
	if s.writer == nil {
		return ""
	}
	return s.writer.model()
}

func parseTimeout(raw string) time.Duration {
	timeout, err := time.ParseDuration(raw)
	if err != nil || timeout <= 0 {
		return defaultTimeout
	}
	return timeout
}
