// Package card holds the Adaptive Card documents the relay sends as
// structured replies. The templates are static text plus the caller's
// display name.
package card

import "strings"

const (
	// ContentType is the attachment content type for Adaptive Cards.
	ContentType = "application/vnd.microsoft.card.adaptive"

	schemaURL = "http://adaptivecards.io/schemas/adaptive-card.json"
	version   = "1.4"

	// ActionGetStarted is the submit payload of the welcome card button.
	ActionGetStarted = "getStarted"
)

// Card is an Adaptive Card document.
type Card struct {
	Type    string    `json:"type"`
	Schema  string    `json:"$schema"`
	Version string    `json:"version"`
	Body    []Element `json:"body"`
	Actions []Action  `json:"actions,omitempty"`
}

// Element is a body element: TextBlock, Container or FactSet.
type Element struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	Weight  string    `json:"weight,omitempty"`
	Size    string    `json:"size,omitempty"`
	Spacing string    `json:"spacing,omitempty"`
	Style   string    `json:"style,omitempty"`
	Wrap    bool      `json:"wrap,omitempty"`
	Items   []Element `json:"items,omitempty"`
	Facts   []Fact    `json:"facts,omitempty"`
}

// Fact is a title/value row of a FactSet.
type Fact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Action is a card action such as Action.Submit.
type Action struct {
	Type  string            `json:"type"`
	Title string            `json:"title"`
	Data  map[string]string `json:"data,omitempty"`
}

func newCard(body []Element, actions ...Action) Card {
	return Card{
		Type:    "AdaptiveCard",
		Schema:  schemaURL,
		Version: version,
		Body:    body,
		Actions: actions,
	}
}

func heading(text string) Element {
	return Element{Type: "TextBlock", Text: text, Weight: "Bolder", Size: "Large", Wrap: true}
}

func section(text string) Element {
	return Element{Type: "TextBlock", Text: text, Weight: "Bolder", Spacing: "Medium"}
}

func paragraph(text string) Element {
	return Element{Type: "TextBlock", Text: text, Wrap: true}
}

// PlainText flattens the card into readable text for transports that cannot
// render cards.
func (c Card) PlainText() string {
	var lines []string
	var walk func(elements []Element)
	walk = func(elements []Element) {
		for _, el := range elements {
			if el.Text != "" {
				lines = append(lines, el.Text)
			}
			for _, fact := range el.Facts {
				lines = append(lines, "• "+fact.Title+" - "+fact.Value)
			}
			walk(el.Items)
		}
	}
	walk(c.Body)
	for _, action := range c.Actions {
		lines = append(lines, "["+action.Title+"]")
	}
	return strings.Join(lines, "\n\n")
}
