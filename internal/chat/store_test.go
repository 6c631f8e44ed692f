package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turns(roles ...string) []Turn {
	out := make([]Turn, len(roles))
	for i, r := range roles {
		out[i] = Turn{Role: r, Content: string(rune('a' + i))}
	}
	return out
}

func TestCapHistory(t *testing.T) {
	in := turns(RoleSystem, RoleAssistant, RoleUser, RoleAssistant, RoleUser, RoleAssistant)

	got := CapHistory(in, 3)
	want := []Turn{in[0], in[3], in[4], in[5]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cap mismatch (-want +got):\n%s", diff)
	}
	// input untouched
	assert.Equal(t, "b", in[1].Content)

	assert.Equal(t, in, CapHistory(in, 10))
	assert.Len(t, CapHistory(in, 0), 6)

	noSystem := turns(RoleUser, RoleAssistant, RoleUser)
	assert.Equal(t, noSystem[1:], CapHistory(noSystem, 2))
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	require.ErrorIs(t, s.Append(ctx, "x", Turn{Role: RoleUser, Content: "hi"}), ErrSessionNotFound)
	_, err := s.History(ctx, "x")
	require.ErrorIs(t, err, ErrSessionNotFound)

	created, err := s.Ensure(ctx, "x", []Turn{{Role: RoleSystem, Content: "sys"}})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Ensure(ctx, "x", []Turn{{Role: RoleSystem, Content: "other"}})
	require.NoError(t, err)
	assert.False(t, created)

	for _, c := range []string{"1", "2", "3"} {
		require.NoError(t, s.Append(ctx, "x", Turn{Role: RoleUser, Content: c}))
	}
	got, err := s.History(ctx, "x")
	require.NoError(t, err)
	want := []Turn{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "2"},
		{Role: RoleUser, Content: "3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}

	// returned slices are copies
	got[0].Content = "mutated"
	again, _ := s.History(ctx, "x")
	assert.Equal(t, "sys", again[0].Content)
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("same")
			defer unlock()
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, k.size())

	a := k.Lock("a")
	b := k.Lock("b")
	assert.Equal(t, 2, k.size())
	a()
	b()
	assert.Equal(t, 0, k.size())
}
