package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openRouterURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel = "deepseek/deepseek-chat-v3-0324:free"
)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient talks to an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	APIKey string
	URL    string
	HTTP   *http.Client
}

func NewChatClient(apiKey, url string) *ChatClient {
	if url == "" {
		url = openRouterURL
	}
	return &ChatClient{APIKey: apiKey, URL: url, HTTP: &http.Client{}}
}

func (c *ChatClient) Chat(ctx context.Context, model, systemPrompt, userMessage string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var responseData struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &responseData); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(responseData.Choices) == 0 {
		return "", fmt.Errorf("unexpected response format")
	}
	return responseData.Choices[0].Message.Content, nil
}

// ChatVerifier checks answers through a ChatClient.
type ChatVerifier struct {
	client  *ChatClient
	model   string
	timeout time.Duration
}

func NewChatVerifier(client *ChatClient, model string, timeout time.Duration) *ChatVerifier {
	if model == "" {
		model = defaultOpenRouterModel
	}
	return &ChatVerifier{client: client, model: model, timeout: timeout}
}

func (v *ChatVerifier) Verify(ctx context.Context, pc PuzzleContext, response, answer string) (bool, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	prompt := buildVerifierPrompt(pc, response, answer)
	reply, err := v.client.Chat(ctx, v.model, verifierInstructions, prompt)
	if err != nil {
		return false, fmt.Errorf("chat verify: %w", err)
	}
	return parseVerdict(reply)
}
