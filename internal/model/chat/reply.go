package chat

import "github.com/zhouzirui/teams-relay/backend/internal/model/card"

// ReplyKind tells transports how to render a reply.
type ReplyKind string

const (
	ReplyText    ReplyKind = "text"
	ReplyHelp    ReplyKind = "help"
	ReplyWelcome ReplyKind = "welcome"
)

// Reply is what the relay sends back for one inbound turn.
type Reply struct {
	Kind ReplyKind
	Text string
	Card *card.Card
}

// TextReply wraps plain text.
func TextReply(text string) Reply {
	return Reply{Kind: ReplyText, Text: text}
}

// CardReply wraps a structured card payload.
func CardReply(kind ReplyKind, c card.Card) Reply {
	return Reply{Kind: kind, Card: &c}
}

// PlainText renders the reply as text regardless of kind.
func (r Reply) PlainText() string {
	if r.Card != nil {
		return r.Card.PlainText()
	}
	return r.Text
}
