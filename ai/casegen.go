// Package ai wraps the OpenAI chat API to draft teaching cases.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Config holds the generator configuration.
type Config struct {
	BaseURL    string
	APIKey     string
	ChatModel  string
	MaxRetries int
	Timeout    time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.openai.com/v1",
		APIKey:     "",
		ChatModel:  "gpt-4o-mini",
		MaxRetries: 3,
		Timeout:    30 * time.Second,
	}
}

// Generator drafts medical teaching cases with an LLM.
type Generator struct {
	client *openai.Client
	config *Config
}

// NewGenerator creates a case generator.
func NewGenerator(cfg *Config) *Generator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// GeneratedCase is the structured draft returned by the model.
type GeneratedCase struct {
	Title          string `json:"title"`
	Specialty      string `json:"specialty"`
	Presentation   string `json:"presentation"`
	Findings       string `json:"findings"`
	Diagnosis      string `json:"diagnosis"`
	TeachingPoints string `json:"teachingPoints"`
	Difficulty     string `json:"difficulty"`
}

const systemPrompt = "You are a medical educator writing teaching cases for students. " +
	"Respond with a single JSON object with the keys title, specialty, presentation, " +
	"findings, diagnosis, teachingPoints and difficulty. Keep the presentation realistic " +
	"and the teaching points concrete."

// GenerateCase asks the model for a teaching case on the given topic.
func (g *Generator) GenerateCase(ctx context.Context, topic, difficulty string) (*GeneratedCase, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if difficulty == "" {
		difficulty = "medium"
	}

	var generated GeneratedCase
	err := g.doWithRetry(ctx, func() error {
		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: g.config.ChatModel,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: fmt.Sprintf("Write a %s-difficulty teaching case about: %s", difficulty, topic),
				},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty completion response")
		}
		return json.Unmarshal([]byte(resp.Choices[0].Message.Content), &generated)
	})
	if err != nil {
		return nil, err
	}

	if generated.Title == "" || generated.Presentation == "" {
		return nil, fmt.Errorf("model returned an incomplete case")
	}
	if generated.Difficulty == "" {
		generated.Difficulty = difficulty
	}
	return &generated, nil
}

// doWithRetry runs fn up to MaxRetries times with exponential backoff.
func (g *Generator) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			log.Printf("GenerateCase: attempt %d failed, retrying in %s: %v", attempt, backoff, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("case generation failed after %d attempts: %w", g.config.MaxRetries, lastErr)
}
