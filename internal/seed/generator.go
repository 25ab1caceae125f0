// ABOUTME: AI-powered name pool generator for realistic synthetic leads.
// ABOUTME: Asks OpenAI for names and company words, falling back to the static pool.

package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-5-mini"

// Options configures a Generator.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  *zap.Logger
}

// Generator builds name pools using OpenAI or falls back to static data.
type Generator struct {
	client *openai.Client
	useAI  bool
	model  string
	logger *zap.Logger
}

// NewGenerator creates a generator. Without an API key it only serves the static pool.
func NewGenerator(opts Options) *Generator {
	g := &Generator{model: opts.Model, logger: opts.Logger}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.model == "" {
		g.model = DefaultModel
	}

	if opts.APIKey != "" {
		cfg := openai.DefaultConfig(opts.APIKey)
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		g.client = openai.NewClientWithConfig(cfg)
		g.useAI = true
		g.logger.Info("OpenAI API key found, using AI-generated name pool", zap.String("model", g.model))
	} else {
		g.logger.Info("no OpenAI API key found, using static name pool")
	}
	return g
}

// UsesAI reports whether the generator talks to OpenAI.
func (g *Generator) UsesAI() bool {
	return g.useAI
}

// NamePool returns a pool with roughly size words per list. Any AI failure
// falls back to the static pool; the returned pool is always usable.
func (g *Generator) NamePool(ctx context.Context, size int) *NamePool {
	if !g.useAI || size <= 0 {
		return StaticNamePool()
	}

	g.logger.Info("generating name pool via AI", zap.Int("size", size))

	var first, last, words []string
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		first, err = g.generateList(ctx, size, "realistic, diverse first names")
		return wrapList("first names", err)
	})
	eg.Go(func() error {
		var err error
		last, err = g.generateList(ctx, size, "realistic, diverse surnames")
		return wrapList("last names", err)
	})
	eg.Go(func() error {
		var err error
		words, err = g.generateList(ctx, size, "short fictional company names as single lowercase words of letters only, suitable as a domain label")
		return wrapList("company words", err)
	})

	if err := eg.Wait(); err != nil {
		g.logger.Warn("AI name pool incomplete, falling back to static pool", zap.Error(err))
		return StaticNamePool()
	}

	static := StaticNamePool()
	pool := &NamePool{
		FirstNames:   sanitize(first, isNameWord),
		LastNames:    sanitize(last, isNameWord),
		CompanyWords: sanitize(lower(words), isDomainLabel),
		TLDs:         static.TLDs,
	}
	if pool.Size() == 0 {
		g.logger.Warn("AI name pool had an empty list, falling back to static pool")
		return static
	}

	g.logger.Info("AI name pool ready",
		zap.Int("first_names", len(pool.FirstNames)),
		zap.Int("last_names", len(pool.LastNames)),
		zap.Int("company_words", len(pool.CompanyWords)))
	return pool
}

func (g *Generator) generateList(ctx context.Context, count int, what string) ([]string, error) {
	prompt := fmt.Sprintf(`Generate %d %s.
Return a JSON array of strings only. Do not repeat entries.`, count, what)

	return callOpenAI[[]string](ctx, g.client, g.model, prompt)
}

func wrapList(name string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func lower(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}

func callOpenAI[T any](ctx context.Context, client *openai.Client, model, prompt string) (T, error) {
	var result T

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a data generator. Always respond with valid JSON only, no markdown or explanation.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return result, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return result, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return result, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return result, nil
}
