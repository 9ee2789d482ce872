// Package command intercepts slash commands before they reach the model.
package command

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/teams-relay/backend/internal/model/card"
	"github.com/zhouzirui/teams-relay/backend/internal/model/chat"
	"github.com/zhouzirui/teams-relay/backend/internal/service/ai"
	"github.com/zhouzirui/teams-relay/backend/internal/service/history"
)

var commandPattern = regexp.MustCompile(`^/(\w+)`)

// SessionStore is the slice of the history store commands need.
type SessionStore interface {
	Clear(userID string) bool
	Stats() history.Stats
}

// BackendStatus reports the completion backend configuration.
type BackendStatus interface {
	Stats() ai.Stats
}

type action int

const (
	actionHelp action = iota + 1
	actionClear
	actionStatus
)

var aliases = map[string]action{
	"help":    actionHelp,
	"ayuda":   actionHelp,
	"clear":   actionClear,
	"limpiar": actionClear,
	"status":  actionStatus,
	"estado":  actionStatus,
}

const (
	msgCleared = "🗑️ Historial de conversación limpiado. ¡Empecemos de nuevo!"
	msgUnknown = "❓ Comando desconocido: /%s\n\nUsa /help para ver comandos disponibles."
)

// Router maps command words onto built-in actions.
type Router struct {
	store   SessionStore
	backend BackendStatus
	help    func() card.Card
	logger  *zap.Logger
}

// NewRouter wires the router to its collaborators.
func NewRouter(store SessionStore, backend BackendStatus, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		store:   store,
		backend: backend,
		help:    card.Help,
		logger:  logger.Named("command"),
	}
}

// Parse returns the lowercased command word when raw starts with "/word".
// Commands in the middle of a message are not recognised.
func Parse(raw string) (string, bool) {
	m := commandPattern.FindStringSubmatch(strings.TrimLeft(raw, " \t\r\n"))
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// Dispatch runs a parsed command. Unknown commands get an explanatory
// reply rather than an error.
func (r *Router) Dispatch(_ context.Context, name, userID string) chat.Reply {
	r.logger.Debug("command", zap.String("name", name))

	switch aliases[name] {
	case actionHelp:
		return chat.CardReply(chat.ReplyHelp, r.help())
	case actionClear:
		r.store.Clear(userID)
		return chat.TextReply(msgCleared)
	case actionStatus:
		return chat.TextReply(r.status())
	default:
		return chat.TextReply(fmt.Sprintf(msgUnknown, name))
	}
}

func (r *Router) status() string {
	backend := r.backend.Stats()
	enabled := "❌ No"
	if backend.Enabled {
		enabled = "✅ Sí"
	}

	return fmt.Sprintf("📊 **Estado del Bot**\n\n- IA habilitada: %s\n- Modelo: %s\n- Conversaciones activas: %d",
		enabled, backend.Model, r.store.Stats().ActiveSessions)
}
