package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompat_Chat(t *testing.T) {
	var got openAIChatReq
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"I'm here for you."},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	p := NewGroqProvider(server.URL+"/v1", "gsk-test", "")
	reply, err := p.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be kind"},
		{Role: RoleAssistant, Content: "Hello."},
		{Role: RoleUser, Content: "I had a rough day"},
	})
	require.NoError(t, err)
	assert.Equal(t, "I'm here for you.", reply)

	assert.Equal(t, "llama-3.3-70b-versatile", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "I had a rough day", got.Messages[2].Content)
}

func TestOpenAICompat_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		build  func(url string) *OpenAICompatProvider
		want   ErrorKind
	}{
		{
			name:   "groq invalid key",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`,
			build:  func(url string) *OpenAICompatProvider { return NewGroqProvider(url, "bad", "") },
			want:   KindInvalidCredentials,
		},
		{
			name:   "groq rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Rate limit reached for model","type":"tokens","code":"rate_limit_exceeded"}}`,
			build:  func(url string) *OpenAICompatProvider { return NewGroqProvider(url, "k", "") },
			want:   KindRateLimited,
		},
		{
			name:   "openai bad key",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			build:  func(url string) *OpenAICompatProvider { return NewOpenAIProvider(url, "bad", "") },
			want:   KindInvalidCredentials,
		},
		{
			name:   "openai quota",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`,
			build:  func(url string) *OpenAICompatProvider { return NewOpenAIProvider(url, "k", "") },
			want:   KindRateLimited,
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   ``,
			build:  func(url string) *OpenAICompatProvider { return NewOpenAIProvider(url, "k", "") },
			want:   KindUnclassified,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer server.Close()

			res := Attempt(context.Background(), tc.build(server.URL), []Message{{Role: RoleUser, Content: "hi"}})
			assert.False(t, res.OK())
			assert.Empty(t, res.Text)
			assert.Equal(t, tc.want, res.Kind)
			assert.Error(t, res.Err)
		})
	}
}

func TestOpenAICompat_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	res := Attempt(context.Background(), NewOpenAIProvider(server.URL, "k", ""), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Equal(t, KindUnclassified, res.Kind)
}

func TestOpenAICompat_ErrorInOKBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"message":"Rate limit reached for model"}}`)
	}))
	defer server.Close()

	res := Attempt(context.Background(), NewGroqProvider(server.URL, "k", ""), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Equal(t, KindRateLimited, res.Kind)
	require.Error(t, res.Err)
	assert.Equal(t, "groq: Rate limit reached for model", res.Err.Error())
}

func TestOpenAICompat_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := Attempt(ctx, NewOpenAIProvider(server.URL, "k", ""), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Equal(t, KindUnclassified, res.Kind)
}

func TestOpenAICompat_MissingKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "", "").Chat(context.Background(), nil)
	assert.ErrorContains(t, err, "api key is required")
}
