package ai

import (
	"strings"

	"github.com/zhouzirui/teams-relay/backend/internal/model/persona"
)

type promptLabels struct {
	guidelines   string
	capabilities string
}

var labelsByLocale = map[string]promptLabels{
	"es": {guidelines: "Directrices", capabilities: "Capacidades"},
	"en": {guidelines: "Guidelines", capabilities: "Capabilities"},
}

// BuildSystemPrompt renders a persona into the fixed system instruction.
func BuildSystemPrompt(p persona.Persona) string {
	labels, ok := labelsByLocale[p.Locale]
	if !ok {
		labels = labelsByLocale["en"]
	}

	var builder strings.Builder
	builder.WriteString(strings.TrimSpace(p.Description))
	if role := strings.TrimSpace(p.Role); role != "" {
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(role)
	}
	writeList(&builder, labels.guidelines, p.Guidelines)
	writeList(&builder, labels.capabilities, p.Capabilities)
	return builder.String()
}

// SystemInstruction picks the configured override when present, otherwise
// the persona rendering.
func SystemInstruction(override string, p persona.Persona) string {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		return trimmed
	}
	return BuildSystemPrompt(p)
}

func writeList(builder *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	builder.WriteString("\n\n")
	builder.WriteString(label)
	builder.WriteString(":")
	for _, item := range items {
		builder.WriteString("\n- ")
		builder.WriteString(item)
	}
}
