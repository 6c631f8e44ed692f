package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider talks to the Gemini API through the genai SDK. The system
// turn is sent as the system instruction and assistant turns use the
// "model" role.
type GeminiProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client

	mu     sync.Mutex
	client *genai.Client
}

var geminiVocabulary = Vocabulary{
	Credentials: []string{"api_key", "api key", "invalid", "permission_denied", "unauthenticated"},
	RateLimit:   []string{"quota", "rate limit", "rate_limit", "resource_exhausted", "429"},
}

func NewGeminiProvider(apiKey, model, baseURL string) *GeminiProvider {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiProvider{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Classify(err error) ErrorKind {
	return geminiVocabulary.Classify(err)
}

// sdk builds the genai client on first use. A failed build is not cached,
// so the next request tries again.
func (p *GeminiProvider) sdk(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:     p.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.Client,
	}
	if p.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(p.BaseURL, "/") + "/"}
	}
	client, err := genai.NewClient(context.WithoutCancel(ctx), cc)
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

func (p *GeminiProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	client, err := p.sdk(ctx)
	if err != nil {
		return "", err
	}

	system, contents := geminiContents(messages)
	if len(contents) == 0 {
		return "", errors.New("gemini: request requires messages")
	}

	resp, err := client.Models.GenerateContent(ctx, p.Model, contents, geminiConfig(system))
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

func geminiConfig(system string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](Temperature),
		MaxOutputTokens: MaxOutputTokens,
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return config
}

// geminiContents splits the shared history into the system instruction and
// the user/model turn list.
func geminiContents(messages []Message) (string, []*genai.Content) {
	var system strings.Builder
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n")
			}
			system.WriteString(m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return system.String(), contents
}
