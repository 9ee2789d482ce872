package activity

import (
	"encoding/json"
	"strings"
)

// Activity types handled by the relay.
const (
	TypeMessage            = "message"
	TypeTyping             = "typing"
	TypeConversationUpdate = "conversationUpdate"
	TypeMessageReaction    = "messageReaction"
	TypeInvoke             = "invoke"

	invokeAdaptiveCardAction = "adaptiveCard/action"
	invokeResponseType       = "application/vnd.microsoft.activity.message"
	entityMention            = "mention"
)

// ChannelAccount identifies a user or the bot.
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ConversationAccount identifies the conversation a turn belongs to.
type ConversationAccount struct {
	ID string `json:"id"`
}

// Entity is metadata attached to a message, such as an @mention.
type Entity struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Mentioned *ChannelAccount `json:"mentioned,omitempty"`
}

// Reaction is an emoji reaction on a previous message.
type Reaction struct {
	Type string `json:"type"`
}

// Attachment carries rich content, here Adaptive Cards.
type Attachment struct {
	ContentType string `json:"contentType"`
	Content     any    `json:"content"`
}

// Activity is the subset of the Bot Framework activity schema the relay
// reads and writes.
type Activity struct {
	Type           string              `json:"type"`
	ID             string              `json:"id,omitempty"`
	Name           string              `json:"name,omitempty"`
	From           ChannelAccount      `json:"from"`
	Recipient      ChannelAccount      `json:"recipient"`
	Conversation   ConversationAccount `json:"conversation"`
	ReplyToID      string              `json:"replyToId,omitempty"`
	Text           string              `json:"text,omitempty"`
	TextFormat     string              `json:"textFormat,omitempty"`
	Entities       []Entity            `json:"entities,omitempty"`
	MembersAdded   []ChannelAccount    `json:"membersAdded,omitempty"`
	ReactionsAdded []Reaction          `json:"reactionsAdded,omitempty"`
	Attachments    []Attachment        `json:"attachments,omitempty"`
	Value          json.RawMessage     `json:"value,omitempty"`
}

// InvokeResponse answers invoke activities.
type InvokeResponse struct {
	StatusCode int    `json:"statusCode"`
	Type       string `json:"type,omitempty"`
}

// Response is the expect-replies envelope returned for every activity.
type Response struct {
	Activities []Activity      `json:"activities"`
	Invoke     *InvokeResponse `json:"invokeResponse,omitempty"`
}

// CleanText returns the message text with mentions of the bot removed.
func (a *Activity) CleanText() string {
	text := a.Text
	for _, entity := range a.Entities {
		if entity.Type != entityMention || entity.Mentioned == nil || entity.Text == "" {
			continue
		}
		if entity.Mentioned.ID == a.Recipient.ID {
			text = strings.TrimSpace(strings.Replace(text, entity.Text, "", 1))
		}
	}
	return strings.TrimSpace(text)
}

// SubmittedAction extracts the card action name from Value. Plain submits
// carry {"action":"x"}; universal actions nest it under action.data or
// use action.verb.
func (a *Activity) SubmittedAction() string {
	if len(a.Value) == 0 {
		return ""
	}

	var value struct {
		Action json.RawMessage `json:"action"`
	}
	if err := json.Unmarshal(a.Value, &value); err != nil || len(value.Action) == 0 {
		return ""
	}

	var name string
	if err := json.Unmarshal(value.Action, &name); err == nil {
		return name
	}

	var nested struct {
		Verb string `json:"verb"`
		Data struct {
			Action string `json:"action"`
		} `json:"data"`
	}
	if err := json.Unmarshal(value.Action, &nested); err != nil {
		return ""
	}
	if nested.Data.Action != "" {
		return nested.Data.Action
	}
	return nested.Verb
}
