package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

func initGemini(ctx context.Context, apiKey string) (*genai.Client, error) {
	config := &genai.ClientConfig{}
	if apiKey != "" {
		config.APIKey = apiKey
	}
	return genai.NewClient(ctx, config)
}

func generateModelText(ctx context.Context, client *genai.Client, modelName, prompt string) (string, error) {
	if client == nil {
		return "", errors.New("gemini client not initialized")
	}
	resp, err := client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return cleanModelOutput(resp.Text()), nil
}

func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// GeminiVerifier checks answers with a Gemini model.
type GeminiVerifier struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiVerifier(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiVerifier, error) {
	client, err := initGemini(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("init gemini: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiVerifier{client: client, model: model, timeout: timeout}, nil
}

func (v *GeminiVerifier) Verify(ctx context.Context, pc PuzzleContext, response, answer string) (bool, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	reply, err := generateModelText(ctx, v.client, v.model, buildVerifierPrompt(pc, response, answer))
	if err != nil {
		return false, fmt.Errorf("gemini verify: %w", err)
	}
	return parseVerdict(reply)
}
