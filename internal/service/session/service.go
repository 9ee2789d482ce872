// Package session drives one inbound turn through commands, history and
// the completion backend.
package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/teams-relay/backend/internal/model/card"
	"github.com/zhouzirui/teams-relay/backend/internal/model/chat"
	"github.com/zhouzirui/teams-relay/backend/internal/service/ai"
	"github.com/zhouzirui/teams-relay/backend/internal/service/command"
	"github.com/zhouzirui/teams-relay/backend/pkg/utils"
)

const (
	logPreviewRunes = 100
	getStartedText  = "¡Genial! 🚀 Escríbeme cualquier pregunta y te ayudaré."
)

// History is the per-user turn store.
type History interface {
	Get(userID string) []chat.Turn
	Append(userID string, role chat.Role, content string) error
}

// Commands dispatches parsed slash commands.
type Commands interface {
	Dispatch(ctx context.Context, name, userID string) chat.Reply
}

// Completer turns a history into model text or a fallback reply.
type Completer interface {
	Complete(ctx context.Context, turns []chat.Turn) ai.Outcome
}

// Deps are the collaborators of Service.
type Deps struct {
	History   History
	Commands  Commands
	Completer Completer
	// Greeting answers empty input.
	Greeting string
	Logger   *zap.Logger
}

// Service handles turns. At most one turn per user runs at a time;
// different users proceed concurrently.
type Service struct {
	history   History
	commands  Commands
	completer Completer
	greeting  string
	locks     *keyLock
	logger    *zap.Logger
}

// NewService assembles the session service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		history:   deps.History,
		commands:  deps.Commands,
		completer: deps.Completer,
		greeting:  deps.Greeting,
		locks:     newKeyLock(),
		logger:    logger.Named("session"),
	}
}

// HandleTurn answers one inbound message. Backend failures never surface
// as errors; an error means the caller gave up waiting for an earlier
// turn of the same user.
func (s *Service) HandleTurn(ctx context.Context, in chat.Inbound) (chat.Reply, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return chat.TextReply(s.greeting), nil
	}

	unlock, err := s.locks.Lock(ctx, in.UserID)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("wait for previous turn: %w", err)
	}
	defer unlock()

	logger := s.logger.With(
		zap.String("user", utils.ShortID(in.UserID, 8)),
		zap.String("name", in.UserName),
	)

	if name, ok := command.Parse(text); ok {
		logger.Info("command received", zap.String("command", name))
		return s.commands.Dispatch(ctx, name, in.UserID), nil
	}

	logger.Info("message received", zap.String("text", utils.Preview(text, logPreviewRunes)))

	if err := s.history.Append(in.UserID, chat.RoleUser, text); err != nil {
		return chat.Reply{}, fmt.Errorf("append user turn: %w", err)
	}

	outcome := s.completer.Complete(ctx, s.history.Get(in.UserID))
	if !outcome.OK() {
		logger.Warn("fallback reply", zap.Stringer("failure", outcome.Failure))
		return chat.TextReply(outcome.Text), nil
	}

	if err := s.history.Append(in.UserID, chat.RoleAssistant, outcome.Text); err != nil {
		return chat.Reply{}, fmt.Errorf("append assistant turn: %w", err)
	}

	logger.Info("reply sent", zap.String("text", utils.Preview(outcome.Text, logPreviewRunes)))
	return chat.TextReply(outcome.Text), nil
}

// Welcome is the card sent to a member joining the conversation.
func (s *Service) Welcome(name string) chat.Reply {
	return chat.CardReply(chat.ReplyWelcome, card.Welcome(name))
}

// GetStarted answers the welcome card's start action.
func (s *Service) GetStarted() chat.Reply {
	return chat.TextReply(getStartedText)
}
