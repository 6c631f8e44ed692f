package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ChainKeepsRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"gemini", "groq", "openai"} {
		name := name
		reg.Register(name, name+"-model", func(ctx context.Context, model string) (Provider, error) {
			return &stubProvider{name: name, reply: model}, nil
		})
	}
	// re-registering keeps its slot
	reg.Register("GEMINI", "gemini-2", func(ctx context.Context, model string) (Provider, error) {
		return &stubProvider{name: "gemini", reply: model}, nil
	})

	assert.Equal(t, []string{"gemini", "groq", "openai"}, reg.Names())

	chain, err := reg.Chain(context.Background())
	require.NoError(t, err)
	require.Len(t, chain, 3)
	var names []string
	for _, p := range chain {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"gemini", "groq", "openai"}, names)

	text, _ := chain[0].Chat(context.Background(), nil)
	assert.Equal(t, "gemini-2", text)
}

func TestRegistry_GetModelOverride(t *testing.T) {
	reg := NewRegistry()
	reg.Register("groq", "default-model", func(ctx context.Context, model string) (Provider, error) {
		return &stubProvider{name: "groq", reply: model}, nil
	})

	p, err := reg.Get(context.Background(), "groq", "custom")
	require.NoError(t, err)
	text, _ := p.Chat(context.Background(), nil)
	assert.Equal(t, "custom", text)

	_, err = reg.Get(context.Background(), "missing", "")
	assert.ErrorContains(t, err, "unknown ai provider")
}

func TestRegistry_ChainFactoryError(t *testing.T) {
	reg := NewRegistry()
	reg.Register("bad", "", func(ctx context.Context, model string) (Provider, error) {
		return nil, errors.New("no key")
	})
	_, err := reg.Chain(context.Background())
	assert.ErrorContains(t, err, "build provider bad")
}

func TestRegistry_Empty(t *testing.T) {
	chain, err := NewRegistry().Chain(context.Background())
	require.NoError(t, err)
	assert.Empty(t, chain)
}
