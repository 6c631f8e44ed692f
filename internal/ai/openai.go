package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAICompatProvider speaks the OpenAI chat-completions wire format. Groq
// and OpenAI both use it; they differ in base URL, default model and the
// wording of their auth errors.
type OpenAICompatProvider struct {
	ProviderName string
	BaseURL      string
	APIKey       string
	Model        string
	Client       *http.Client

	vocabulary Vocabulary
}

type openAIMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatReq struct {
	Model       string      `json:"model"`
	Messages    []openAIMsg `json:"messages"`
	MaxTokens   int         `json:"max_tokens"`
	Temperature float64     `json:"temperature"`
	Stream      bool        `json:"stream"`
}

type openAIChatResp struct {
	Choices []struct {
		Message openAIMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

var (
	groqVocabulary = Vocabulary{
		Credentials: []string{"api_key", "api key", "invalid", "auth"},
		RateLimit:   []string{"rate limit", "rate_limit", "quota", "429", "too many requests"},
	}
	openAIVocabulary = Vocabulary{
		Credentials: []string{"api_key", "api key", "authentication", "401"},
		RateLimit:   []string{"rate limit", "rate_limit", "quota", "429", "too many requests"},
	}
)

func NewGroqProvider(baseURL, apiKey, model string) *OpenAICompatProvider {
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return &OpenAICompatProvider{
		ProviderName: "groq",
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		Client:       &http.Client{Timeout: 90 * time.Second},
		vocabulary:   groqVocabulary,
	}
}

func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAICompatProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAICompatProvider{
		ProviderName: "openai",
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		Client:       &http.Client{Timeout: 90 * time.Second},
		vocabulary:   openAIVocabulary,
	}
}

func (p *OpenAICompatProvider) Name() string { return p.ProviderName }

func (p *OpenAICompatProvider) Classify(err error) ErrorKind {
	if p.vocabulary.Credentials == nil && p.vocabulary.RateLimit == nil {
		return DefaultClassify(err)
	}
	return p.vocabulary.Classify(err)
}

func (p *OpenAICompatProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	name := p.Name()
	if p.Client == nil {
		return "", fmt.Errorf("%s: http client is nil", name)
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return "", fmt.Errorf("%s: api key is required", name)
	}
	model := strings.TrimSpace(p.Model)
	if model == "" {
		return "", fmt.Errorf("%s: model is required", name)
	}

	reqBody := openAIChatReq{
		Model:       model,
		MaxTokens:   MaxOutputTokens,
		Temperature: Temperature,
		Stream:      false,
		Messages: func() []openAIMsg {
			out := make([]openAIMsg, 0, len(messages))
			for _, m := range messages {
				out = append(out, openAIMsg{Role: m.Role, Content: m.Content})
			}
			return out
		}(),
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("%s: status %d: %s", name, resp.StatusCode, msg)
	}

	var decoded openAIChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", name, err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", fmt.Errorf("%s: %s", name, decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%s: empty response", name)
	}
	return decoded.Choices[0].Message.Content, nil
}
