package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		reply   string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"TRUE.", true, false},
		{"```\nFalse\n```", false, false},
		{"The answer is true", true, false},
		{"true or false?", false, true},
		{"maybe", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		got, err := parseVerdict(tt.reply)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrUnverifiable), tt.reply)
			continue
		}
		require.NoError(t, err, tt.reply)
		assert.Equal(t, tt.want, got, tt.reply)
	}
}

func TestVerifierPromptCarriesBothAnswers(t *testing.T) {
	prompt := buildVerifierPrompt(PuzzleContext{Question: "Q?", Category: "logic"}, "my guess", "the answer")
	assert.Contains(t, prompt, "Puzzle: Q?")
	assert.Contains(t, prompt, "Category: logic")
	assert.NotContains(t, prompt, "Difficulty:")
	assert.Contains(t, prompt, "Reference answer: the answer")
	assert.Contains(t, prompt, "Player response: my guess")
}

func chatServer(t *testing.T, reply string, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Messages, 2)
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatVerifier(t *testing.T) {
	srv := chatServer(t, "True", 0)
	v := NewChatVerifier(NewChatClient("secret", srv.URL), "", time.Second)

	ok, err := v.Verify(context.Background(), PuzzleContext{Question: "Q"}, "piano", "a piano")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChatVerifierTimesOut(t *testing.T) {
	srv := chatServer(t, "true", time.Second)
	v := NewChatVerifier(NewChatClient("secret", srv.URL), "", 50*time.Millisecond)

	_, err := v.Verify(context.Background(), PuzzleContext{Question: "Q"}, "piano", "a piano")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestChatClientReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewChatClient("secret", srv.URL).Chat(context.Background(), "m", "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
