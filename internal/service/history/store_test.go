package history_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/teams-relay/backend/internal/model/chat"
	"github.com/zhouzirui/teams-relay/backend/internal/service/history"
)

const systemPrompt = "You are a helpful assistant."

func newStore(maxHistory int) *history.Store {
	return history.NewStore(history.Config{MaxHistory: maxHistory, SystemPrompt: systemPrompt}, nil)
}

func appendPair(t *testing.T, store *history.Store, userID string, n int) {
	t.Helper()
	require.NoError(t, store.Append(userID, chat.RoleUser, fmt.Sprintf("question %d", n)))
	require.NoError(t, store.Append(userID, chat.RoleAssistant, fmt.Sprintf("answer %d", n)))
}

func TestGetSeedsSystemTurn(t *testing.T) {
	store := newStore(20)

	got := store.Get("u1")
	want := []chat.Turn{chat.SystemTurn(systemPrompt)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("seeded history mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, store.Stats().ActiveSessions)
}

func TestGetReturnsCopy(t *testing.T) {
	store := newStore(20)
	turns := store.Get("u1")
	turns[0].Content = "tampered"

	assert.Equal(t, systemPrompt, store.Get("u1")[0].Content)
}

func TestAppendSlidingWindowKeepsNewestPairs(t *testing.T) {
	store := newStore(20)
	for i := 1; i <= 25; i++ {
		appendPair(t, store, "u1", i)
	}

	got := store.Get("u1")
	require.Len(t, got, 21)

	want := []chat.Turn{chat.SystemTurn(systemPrompt)}
	for i := 16; i <= 25; i++ {
		want = append(want,
			chat.UserTurn(fmt.Sprintf("question %d", i)),
			chat.AssistantTurn(fmt.Sprintf("answer %d", i)),
		)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestSystemTurnNeverEvicted(t *testing.T) {
	store := newStore(4)
	for i := 0; i < 200; i++ {
		appendPair(t, store, "u1", i)

		turns := store.Get("u1")
		require.LessOrEqual(t, len(turns), 5)
		require.Equal(t, chat.SystemTurn(systemPrompt), turns[0])
		for _, turn := range turns[1:] {
			require.NotEqual(t, chat.RoleSystem, turn.Role)
		}
	}
}

func TestAppendRejectsSystemAndUnknownRoles(t *testing.T) {
	store := newStore(20)

	assert.ErrorIs(t, store.Append("u1", chat.RoleSystem, "again"), history.ErrSystemTurn)
	assert.ErrorIs(t, store.Append("u1", chat.Role("tool"), "x"), history.ErrInvalidRole)
	assert.Equal(t, 0, store.Len("u1"))
}

func TestClearReseeds(t *testing.T) {
	store := newStore(20)
	appendPair(t, store, "u1", 1)

	assert.True(t, store.Clear("u1"))
	assert.Equal(t, 0, store.Stats().ActiveSessions)
	assert.Equal(t, 0, store.Len("u1"))

	require.NoError(t, store.Append("u1", chat.RoleUser, "fresh"))
	want := []chat.Turn{chat.SystemTurn(systemPrompt), chat.UserTurn("fresh")}
	if diff := cmp.Diff(want, store.Get("u1")); diff != "" {
		t.Fatalf("history after clear mismatch (-want +got):\n%s", diff)
	}
}

func TestClearUnknownUserIsNoop(t *testing.T) {
	store := newStore(20)
	assert.False(t, store.Clear("ghost"))
	assert.False(t, store.Clear("ghost"))
}

func TestLenDoesNotCreateSession(t *testing.T) {
	store := newStore(20)
	assert.Equal(t, 0, store.Len("u1"))
	assert.Equal(t, 0, store.Stats().ActiveSessions)
}

func TestNewStoreNormalizesWindow(t *testing.T) {
	assert.Equal(t, history.DefaultMaxHistory, newStore(0).MaxHistory())
	assert.Equal(t, 2, newStore(1).MaxHistory())
}

func TestUsersAreIndependent(t *testing.T) {
	store := newStore(20)

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = store.Append(userID, chat.RoleUser, "q")
				_ = store.Append(userID, chat.RoleAssistant, "a")
			}
		}(fmt.Sprintf("user-%d", u))
	}
	wg.Wait()

	assert.Equal(t, 8, store.Stats().ActiveSessions)
	for u := 0; u < 8; u++ {
		assert.Equal(t, 21, store.Len(fmt.Sprintf("user-%d", u)))
	}
}
