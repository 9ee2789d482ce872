// Package activity serves the Bot Framework style messaging endpoint.
package activity

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/teams-relay/backend/internal/model/card"
	"github.com/zhouzirui/teams-relay/backend/internal/model/chat"
	"github.com/zhouzirui/teams-relay/backend/internal/service/command"
	"github.com/zhouzirui/teams-relay/backend/pkg/utils"
)

const (
	defaultUserName = "Usuario"
	msgTurnError    = "❌ Lo siento, ocurrió un error inesperado. Por favor, intenta de nuevo más tarde."
	debugPrefix     = "🔧 Debug: "
)

// Turns is the conversation core the endpoint talks to.
type Turns interface {
	HandleTurn(ctx context.Context, in chat.Inbound) (chat.Reply, error)
	Welcome(name string) chat.Reply
	GetStarted() chat.Reply
}

// Handler answers activities with the replies produced for them.
type Handler struct {
	turns       Turns
	logger      *zap.Logger
	newID       func() string
	debugErrors bool
}

// New creates the activity handler. With debugErrors set, a failed turn
// also replies with the error text.
func New(turns Turns, logger *zap.Logger, debugErrors bool) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		turns:       turns,
		logger:      logger.Named("activity"),
		newID:       uuid.NewString,
		debugErrors: debugErrors,
	}
}

// RegisterRoutes mounts the messaging endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.handleActivity)
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	var act Activity
	if err := utils.DecodeJSON(r, &act); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid activity body")
		return
	}
	if act.Type == "" {
		utils.RespondError(w, http.StatusBadRequest, "activity type is required")
		return
	}

	h.logger.Debug("activity received",
		zap.String("type", act.Type),
		zap.String("from", act.From.Name),
		zap.Bool("auth", r.Header.Get("Authorization") != ""),
	)

	var (
		resp Response
		err  error
	)
	switch act.Type {
	case TypeMessage:
		resp.Activities, err = h.onMessage(r.Context(), &act)
	case TypeConversationUpdate:
		resp.Activities = h.onMembersAdded(&act)
	case TypeMessageReaction:
		for _, reaction := range act.ReactionsAdded {
			h.logger.Debug("reaction added", zap.String("reaction", reaction.Type))
		}
	case TypeInvoke:
		resp.Activities, resp.Invoke = h.onInvoke(&act)
	default:
		h.logger.Debug("activity ignored", zap.String("type", act.Type))
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			utils.RespondError(w, http.StatusServiceUnavailable, "turn cancelled")
			return
		}
		h.logger.Error("turn failed", zap.Error(err))
		resp.Activities = h.turnError(&act, err)
	}

	if resp.Activities == nil {
		resp.Activities = []Activity{}
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) onMessage(ctx context.Context, act *Activity) ([]Activity, error) {
	if act.Text == "" && act.SubmittedAction() == card.ActionGetStarted {
		return []Activity{h.reply(act, h.turns.GetStarted())}, nil
	}

	text := act.CleanText()
	name := act.From.Name
	if name == "" {
		name = defaultUserName
	}

	reply, err := h.turns.HandleTurn(ctx, chat.Inbound{UserID: act.From.ID, UserName: name, Text: text})
	if err != nil {
		return nil, err
	}

	out := make([]Activity, 0, 2)
	if _, isCommand := command.Parse(text); text != "" && !isCommand {
		out = append(out, h.typing(act))
	}
	return append(out, h.reply(act, reply)), nil
}

func (h *Handler) onMembersAdded(act *Activity) []Activity {
	var out []Activity
	for _, member := range act.MembersAdded {
		if member.ID == act.Recipient.ID {
			continue
		}
		h.logger.Info("member added", zap.String("name", member.Name))
		out = append(out, h.reply(act, h.turns.Welcome(member.Name)))
	}
	return out
}

func (h *Handler) onInvoke(act *Activity) ([]Activity, *InvokeResponse) {
	if act.Name != invokeAdaptiveCardAction {
		h.logger.Debug("invoke ignored", zap.String("name", act.Name))
		return nil, &InvokeResponse{StatusCode: http.StatusNotImplemented}
	}

	var out []Activity
	if act.SubmittedAction() == card.ActionGetStarted {
		out = append(out, h.reply(act, h.turns.GetStarted()))
	}
	return out, &InvokeResponse{StatusCode: http.StatusOK, Type: invokeResponseType}
}

// turnError is the reply for a turn that failed outside the completion
// backend; the user still gets an answer.
func (h *Handler) turnError(in *Activity, err error) []Activity {
	out := []Activity{h.reply(in, chat.TextReply(msgTurnError))}
	if h.debugErrors {
		out = append(out, h.reply(in, chat.TextReply(debugPrefix+err.Error())))
	}
	return out
}

func (h *Handler) typing(in *Activity) Activity {
	return Activity{
		Type:         TypeTyping,
		ID:           h.newID(),
		From:         in.Recipient,
		Recipient:    in.From,
		Conversation: in.Conversation,
	}
}

func (h *Handler) reply(in *Activity, r chat.Reply) Activity {
	out := Activity{
		Type:         TypeMessage,
		ID:           h.newID(),
		From:         in.Recipient,
		Recipient:    in.From,
		Conversation: in.Conversation,
		ReplyToID:    in.ID,
	}
	if r.Card != nil {
		out.Attachments = []Attachment{{ContentType: card.ContentType, Content: r.Card}}
		return out
	}
	out.Text = r.Text
	out.TextFormat = "markdown"
	return out
}
