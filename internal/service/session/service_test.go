package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/teams-relay/backend/internal/config"
	"github.com/zhouzirui/teams-relay/backend/internal/model/chat"
	"github.com/zhouzirui/teams-relay/backend/internal/service/ai"
	"github.com/zhouzirui/teams-relay/backend/internal/service/ai/aitest"
	"github.com/zhouzirui/teams-relay/backend/internal/service/command"
	"github.com/zhouzirui/teams-relay/backend/internal/service/history"
)

const (
	testSystem   = "You are a test assistant."
	testGreeting = "👋 ¡Hola! Envíame un mensaje y te ayudaré."
)

type fixture struct {
	svc     *Service
	store   *history.Store
	gateway *ai.Service
	model   *aitest.FakeModel
}

func newFixture(t *testing.T, fake *aitest.FakeModel) fixture {
	t.Helper()

	cfg := config.AIConfig{
		Model:       "gpt-4",
		MaxTokens:   1000,
		Temperature: 0.7,
		Timeout:     5 * time.Second,
		Burst:       1,
	}

	store := history.NewStore(history.Config{MaxHistory: 20, SystemPrompt: testSystem}, nil)
	var gateway *ai.Service
	if fake == nil {
		gateway = ai.NewService(nil, cfg, nil, false)
	} else {
		gateway = ai.NewService(fake, cfg, nil, false)
	}

	svc := NewService(Deps{
		History:   store,
		Commands:  command.NewRouter(store, gateway, nil),
		Completer: gateway,
		Greeting:  testGreeting,
	})
	return fixture{svc: svc, store: store, gateway: gateway, model: fake}
}

func turn(user, text string) chat.Inbound {
	return chat.Inbound{UserID: user, UserName: "Ana", Text: text}
}

func TestHandleTurnEmptyInputReturnsGreeting(t *testing.T) {
	f := newFixture(t, aitest.NewFakeModel(aitest.Text("hi")))

	for _, raw := range []string{"", "   ", "\n\t"} {
		reply, err := f.svc.HandleTurn(context.Background(), turn("u1", raw))
		require.NoError(t, err)
		assert.Equal(t, testGreeting, reply.Text)
	}

	assert.Zero(t, f.store.Len("u1"))
	assert.Zero(t, f.model.CallCount())
}

func TestHandleTurnSuccessAppendsPair(t *testing.T) {
	f := newFixture(t, aitest.NewFakeModel(aitest.Text("Hola, ¿qué tal?")))

	reply, err := f.svc.HandleTurn(context.Background(), turn("u1", "  hola  "))
	require.NoError(t, err)

	assert.Equal(t, chat.ReplyText, reply.Kind)
	assert.Equal(t, "Hola, ¿qué tal?", reply.Text)

	want := []chat.Turn{
		chat.SystemTurn(testSystem),
		chat.UserTurn("hola"),
		chat.AssistantTurn("Hola, ¿qué tal?"),
	}
	if diff := cmp.Diff(want, f.store.Get("u1")); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}

	calls := f.model.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Messages, 2)
	assert.Equal(t, testSystem, calls[0].Messages[0].Content)
	assert.Equal(t, "hola", calls[0].Messages[1].Content)
}

func TestHandleTurnCommandsNeverCallBackend(t *testing.T) {
	f := newFixture(t, aitest.NewFakeModel(aitest.Text("unused")))

	for _, raw := range []string{"/help", "/ayuda", "/status", "/clear", "/foo", "/HELP please"} {
		_, err := f.svc.HandleTurn(context.Background(), turn("u1", raw))
		require.NoError(t, err)
	}

	assert.Zero(t, f.model.CallCount())
	assert.Zero(t, f.store.Len("u1"))
}

func TestHandleTurnHelpReturnsCard(t *testing.T) {
	f := newFixture(t, aitest.NewFakeModel(aitest.Text("unused")))

	reply, err := f.svc.HandleTurn(context.Background(), turn("u1", "/help"))
	require.NoError(t, err)

	assert.Equal(t, chat.ReplyHelp, reply.Kind)
	require.NotNil(t, reply.Card)
}

func TestHandleTurnRateLimitedKeepsOnlyUserTurn(t *testing.T) {
	f := newFixture(t, aitest.NewFakeModel(aitest.Fail(errors.New("error, status code: 429, message: rate_limit_exceeded"))))

	reply, err := f.svc.HandleTurn(context.Background(), turn("u1", "hola"))
	require.NoError(t, err)

	assert.Equal(t, ai.FallbackMessage(ai.FailureRateLimited), reply.Text)
	want := []chat.Turn{chat.SystemTurn(testSystem), chat.UserTurn("hola")}
	if diff := cmp.Diff(want, f.store.Get("u1")); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleTurnFallbackNeverReachesLaterRequests(t *testing.T) {
	f := newFixture(t, aitest.NewFakeModel(
		aitest.Fail(errors.New("boom")),
		aitest.Text("second answer"),
	))

	first, err := f.svc.HandleTurn(context.Background(), turn("u1", "one"))
	require.NoError(t, err)
	assert.Equal(t, ai.FallbackMessage(ai.FailureGeneric), first.Text)

	second, err := f.svc.HandleTurn(context.Background(), turn("u1", "two"))
	require.NoError(t, err)
	assert.Equal(t, "second answer", second.Text)

	calls := f.model.Calls()
	require.Len(t, calls, 2)
	for _, msg := range calls[1].Messages {
		assert.NotEqual(t, first.Text, msg.Content)
	}
	assert.Equal(t, 4, f.store.Len("u1"))
}

func TestHandleTurnDisabledBackend(t *testing.T) {
	f := newFixture(t, nil)

	reply, err := f.svc.HandleTurn(context.Background(), turn("u1", "¿Cuál es la capital de Francia?"))
	require.NoError(t, err)

	assert.Contains(t, reply.Text, `"¿Cuál es la capital de Francia?"`)
	want := []chat.Turn{chat.SystemTurn(testSystem), chat.UserTurn("¿Cuál es la capital de Francia?")}
	if diff := cmp.Diff(want, f.store.Get("u1")); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleTurnDoubleClear(t *testing.T) {
	f := newFixture(t, aitest.NewFakeModel(aitest.Text("ok")))

	_, err := f.svc.HandleTurn(context.Background(), turn("u1", "hola"))
	require.NoError(t, err)
	require.Equal(t, 3, f.store.Len("u1"))

	first, err := f.svc.HandleTurn(context.Background(), turn("u1", "/clear"))
	require.NoError(t, err)
	second, err := f.svc.HandleTurn(context.Background(), turn("u1", "/limpiar"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Zero(t, f.store.Len("u1"))
	assert.Len(t, f.store.Get("u1"), 1)
}

func TestHandleTurnStatusAfterConversation(t *testing.T) {
	f := newFixture(t, aitest.NewFakeModel(aitest.Text("ok")))

	_, err := f.svc.HandleTurn(context.Background(), turn("u1", "hola"))
	require.NoError(t, err)

	reply, err := f.svc.HandleTurn(context.Background(), turn("u2", "/status"))
	require.NoError(t, err)

	assert.Contains(t, reply.Text, "✅ Sí")
	assert.Contains(t, reply.Text, "- Modelo: gpt-4")
	assert.Contains(t, reply.Text, "- Conversaciones activas: 1")
}

func TestHandleTurnWindowAfterManyPairs(t *testing.T) {
	f := newFixture(t, aitest.NewFakeModel(aitest.Text("ok")))

	for i := 0; i < 25; i++ {
		_, err := f.svc.HandleTurn(context.Background(), turn("u1", strings.Repeat("x", i+1)))
		require.NoError(t, err)
	}

	turns := f.store.Get("u1")
	require.Len(t, turns, 21)
	assert.Equal(t, chat.SystemTurn(testSystem), turns[0])
	assert.Equal(t, chat.UserTurn(strings.Repeat("x", 16)), turns[1])
	assert.Equal(t, chat.UserTurn(strings.Repeat("x", 25)), turns[19])
	assert.Equal(t, chat.RoleAssistant, turns[20].Role)
}

func TestHandleTurnSerialisesSameUser(t *testing.T) {
	f := newFixture(t, aitest.NewFakeModel(aitest.Text("ok")))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.HandleTurn(context.Background(), turn("u1", "ping"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	turns := f.store.Get("u1")
	require.Len(t, turns, 21)
	for i, tr := range turns[1:] {
		if i%2 == 0 {
			assert.Equal(t, chat.RoleUser, tr.Role, "turn %d", i+1)
		} else {
			assert.Equal(t, chat.RoleAssistant, tr.Role, "turn %d", i+1)
		}
	}
}

func TestHandleTurnGivesUpWhenContextEnds(t *testing.T) {
	fake := aitest.NewFakeModel(aitest.Text("unused"))
	fake.Block = true
	f := newFixture(t, fake)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	done := make(chan ai.Failure, 1)
	go func() {
		reply, err := f.svc.HandleTurn(firstCtx, turn("u1", "slow"))
		assert.NoError(t, err)
		if reply.Text == ai.FallbackMessage(ai.FailureGeneric) {
			done <- ai.FailureGeneric
			return
		}
		done <- ai.FailureNone
	}()

	require.Eventually(t, func() bool { return fake.CallCount() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.svc.HandleTurn(ctx, turn("u1", "impatient"))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	cancelFirst()
	assert.Equal(t, ai.FailureGeneric, <-done)
	assert.Equal(t, 1, fake.CallCount())
	assert.Equal(t, 2, f.store.Len("u1"))
}

func TestWelcomeAndGetStarted(t *testing.T) {
	f := newFixture(t, nil)

	welcome := f.svc.Welcome("Ana")
	assert.Equal(t, chat.ReplyWelcome, welcome.Kind)
	require.NotNil(t, welcome.Card)
	assert.Contains(t, welcome.PlainText(), "Ana")

	started := f.svc.GetStarted()
	assert.Equal(t, chat.ReplyText, started.Kind)
	assert.Equal(t, "¡Genial! 🚀 Escríbeme cualquier pregunta y te ayudaré.", started.Text)
}
