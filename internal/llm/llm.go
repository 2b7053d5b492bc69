package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/forerkortet/forerkortet/internal/llm/prompts"
	"github.com/forerkortet/forerkortet/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyExplanation is returned when the model answers without an explanation.
var ErrEmptyExplanation = errors.New("llm returned an empty explanation")

type explanationResponse struct {
	Explanation string `json:"explanation"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
	lang  string
}

// New creates a new LLM client. Explanations are written in lang, falling
// back to Norwegian when no prompt exists for it.
func New(baseURL, apiKey, modelName, lang string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if !prompts.HasLanguage(lang) {
		lang = "nb"
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
		lang:  lang,
	}
}

// Ping checks that the API is reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM API ping: %w", err)
	}
	return nil
}

// Explain drafts an explanation of why the question's correct answer is right.
func (c *Client) Explain(ctx context.Context, q model.Question) (string, error) {
	prompt, err := prompts.BuildExplainPrompt(c.lang, q)
	if err != nil {
		return "", err
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("llm explanation response", "question_id", q.ID, "content", content)

	explanation, err := parseExplanation(content)
	if err != nil {
		return "", fmt.Errorf("question %s: %w", q.ID, err)
	}
	return explanation, nil
}

// parseExplanation extracts the explanation from a model reply. Some models
// wrap JSON in markdown code fences even in JSON mode.
func parseExplanation(content string) (string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var r explanationResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &r); err != nil {
		return "", fmt.Errorf("parse LLM response: %w", err)
	}
	r.Explanation = strings.TrimSpace(r.Explanation)
	if r.Explanation == "" {
		return "", ErrEmptyExplanation
	}
	return r.Explanation, nil
}
