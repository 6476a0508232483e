// Package recipe предлагает рецепт по названиям продуктов через Gemini API.
package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"organico/internal/domain"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"
)

var (
	ErrNotConfigured = errors.New("recipe API key not configured")
	ErrNoIngredients = errors.New("no ingredients")
)

var tracer = otel.Tracer("organico/internal/recipe")

// Config параметры клиента
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client клиент GenerateContent
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}
}

func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

func prompt(ingredients []string) string {
	return "Crie uma receita saudável e criativa utilizando alguns ou todos os seguintes ingredientes " +
		"disponíveis na minha cesta de orgânicos: " + strings.Join(ingredients, ", ") + ".\n" +
		"Você pode sugerir ingredientes adicionais comuns de despensa (sal, azeite, etc).\n" +
		"A resposta deve ser estritamente em JSON."
}

// Suggest запрашивает рецепт по списку ингредиентов
func (c *Client) Suggest(ctx context.Context, ingredients []string) (*domain.Recipe, error) {
	ctx, span := tracer.Start(ctx, "recipe.suggest")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", c.model),
		attribute.Int("recipe.ingredients", len(ingredients)),
	)

	r, err := c.suggest(ctx, ingredients)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if c.log != nil {
			c.log.WarnContext(ctx, "recipe request failed", slog.String("model", c.model), slog.Any("error", err))
		}
		return nil, err
	}
	return r, nil
}

func (c *Client) suggest(ctx context.Context, ingredients []string) (*domain.Recipe, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	if len(ingredients) == 0 {
		return nil, ErrNoIngredients
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt(ingredients)}}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   recipeSchema,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// the URL carries the key
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("gemini API error (status %d)", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return nil, errors.New("no candidates in gemini response")
	}
	var text strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return nil, errors.New("no text content in gemini response")
	}

	var r domain.Recipe
	if err := json.Unmarshal([]byte(text.String()), &r); err != nil {
		return nil, fmt.Errorf("parse recipe: %w", err)
	}
	if r.Title == "" {
		return nil, errors.New("recipe without title")
	}
	return &r, nil
}
