package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Generation settings shared by every provider.
const (
	Temperature     = 0.7
	MaxOutputTokens = 500
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Provider interface {
	Name() string
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Classifier is implemented by providers that recognise their own failure
// vocabulary. Providers without it fall back to DefaultClassify.
type Classifier interface {
	Classify(err error) ErrorKind
}

type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindRateLimited        ErrorKind = "rate_limited"
	KindUnclassified       ErrorKind = "unclassified"
)

var errEmptyReply = errors.New("empty reply")

// Result is the outcome of one provider attempt. Text is set on success,
// Kind (and Err, for logging) on failure.
type Result struct {
	Provider string
	Text     string
	Kind     ErrorKind
	Err      error
}

func (r Result) OK() bool { return r.Kind == KindNone && r.Text != "" }

// Attempt calls p once and folds every failure, including a panic inside the
// adapter, into a classified Result.
func Attempt(ctx context.Context, p Provider, messages []Message) (res Result) {
	res.Provider = p.Name()
	defer func() {
		if rec := recover(); rec != nil {
			res.Text = ""
			res.Err = fmt.Errorf("%s: panic: %v", p.Name(), rec)
			res.Kind = KindUnclassified
		}
	}()

	text, err := p.Chat(ctx, messages)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("%s: %w", p.Name(), errEmptyReply)
	}
	if err != nil {
		res.Err = err
		if c, ok := p.(Classifier); ok {
			res.Kind = c.Classify(err)
		} else {
			res.Kind = DefaultClassify(err)
		}
		return res
	}
	res.Text = strings.TrimSpace(text)
	return res
}

// Vocabulary lists the lower-case substrings that map a failure description
// to a kind. Credentials are checked before rate limits.
type Vocabulary struct {
	Credentials []string
	RateLimit   []string
}

var defaultVocabulary = Vocabulary{
	Credentials: []string{"api_key", "api key", "unauthorized", "authentication"},
	RateLimit:   []string{"quota", "rate limit", "rate_limit", "ratelimit", "too many requests", "429", "resource_exhausted"},
}

func (v Vocabulary) Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindUnclassified
	}
	msg := strings.ToLower(err.Error())
	for _, s := range v.Credentials {
		if strings.Contains(msg, s) {
			return KindInvalidCredentials
		}
	}
	for _, s := range v.RateLimit {
		if strings.Contains(msg, s) {
			return KindRateLimited
		}
	}
	return KindUnclassified
}

func DefaultClassify(err error) ErrorKind {
	return defaultVocabulary.Classify(err)
}
