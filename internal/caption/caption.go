// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package caption produces image descriptions through an OpenAI-compatible
// vision model. Format converters take a Describer so captioning stays
// optional and tests can supply a mock.
package caption

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"net/http"
	"path"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/docmark/internal/httputil"
	"github.com/pdiddy/docmark/pkg/types"
)

// Describer produces a short description for an embedded image. A nil
// Describer disables captioning; converters then fall back to generic alt
// text.
type Describer interface {
	Describe(ctx context.Context, img types.Image) (string, error)
}

// defaultPrompt is the captioning instruction sent with each image.
const defaultPrompt = "Write a detailed caption for this image. Respond with the caption text only."

// captionMaxTokens bounds the length of a single caption response.
const captionMaxTokens = 300

// OpenAIDescriber calls an OpenAI-compatible chat completion API with a
// vision message per image.
type OpenAIDescriber struct {
	client     *openai.Client
	model      string
	prompt     string
	maxRetries int
}

// NewOpenAIDescriber builds a describer from cfg. HTTP 429 responses are
// retried at the transport level; other transient failures are retried by
// Describe with exponential backoff.
func NewOpenAIDescriber(cfg types.CaptionConfig) *OpenAIDescriber {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout:   2 * time.Minute,
		Transport: &httputil.RetryTransport{MaxRetries: cfg.MaxRetries},
	}

	prompt := cfg.Prompt
	if prompt == "" {
		prompt = defaultPrompt
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &OpenAIDescriber{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		prompt:     prompt,
		maxRetries: maxRetries,
	}
}

// Describe sends img to the vision model and returns the caption text.
func (d *OpenAIDescriber) Describe(ctx context.Context, img types.Image) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MIMEType(), base64.StdEncoding.EncodeToString(img.Data))

	req := openai.ChatCompletionRequest{
		Model:     d.model,
		MaxTokens: captionMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: d.prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	text, err := withRetry(ctx, d.maxRetries, func() (string, error) {
		resp, err := d.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("model returned no choices")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		return "", fmt.Errorf("describing %s: %w", img.Name, err)
	}
	return text, nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// withRetry invokes fn with exponential backoff between attempts.
func withRetry(ctx context.Context, maxRetries int, fn func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := fn()
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// RenderImages renders Markdown image references for images, one per line.
// When d is nil the image basename doubles as alt text; otherwise the alt
// text is the model-produced caption. A caption failure aborts the whole
// render so the document is reported as failed rather than silently
// degraded.
func RenderImages(ctx context.Context, d Describer, images []types.Image) (string, error) {
	var b strings.Builder
	for i, img := range images {
		alt := strings.TrimSuffix(img.Name, path.Ext(img.Name))
		if d != nil {
			text, err := d.Describe(ctx, img)
			if err != nil {
				return "", err
			}
			if text != "" {
				alt = text
			}
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "![%s](%s)", escapeAlt(alt), img.Name)
	}
	return b.String(), nil
}

// escapeAlt flattens alt text onto one line and escapes closing brackets.
func escapeAlt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "]", `\]`)
}
