package card

import "strings"

const defaultWelcomeName = "amigo"

// Help is the card returned by the help command family.
func Help() Card {
	p := paragraph("Simplemente escríbeme cualquier pregunta o solicitud y haré mi mejor esfuerzo para ayudarte.")
	p.Spacing = "Medium"

	return newCard([]Element{
		{Type: "TextBlock", Text: "🤖 Ayuda del Bot de IA", Weight: "Bolder", Size: "Large"},
		p,
		{
			Type:  "Container",
			Style: "emphasis",
			Items: []Element{
				{Type: "TextBlock", Text: "📌 **Comandos Disponibles**", Weight: "Bolder"},
				{
					Type: "FactSet",
					Facts: []Fact{
						{Title: "/help", Value: "Muestra esta ayuda"},
						{Title: "/clear", Value: "Limpia el historial de conversación"},
						{Title: "/status", Value: "Muestra el estado del bot"},
					},
				},
			},
		},
		section("💡 **Consejos**"),
		paragraph("• Sé específico en tus preguntas\n• Puedo recordar el contexto de la conversación\n• Usa /clear para empezar una conversación nueva"),
	})
}

// Welcome is the card sent to members newly added to a conversation.
func Welcome(name string) Card {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultWelcomeName
	}

	intro := paragraph("Soy un asistente de IA integrado en Microsoft Teams. Estoy aquí para ayudarte con cualquier pregunta o tarea.")
	intro.Spacing = "Medium"

	return newCard(
		[]Element{
			heading("👋 ¡Bienvenido, " + name + "!"),
			intro,
			section("**¿Qué puedo hacer?**"),
			paragraph("• 💬 Responder preguntas\n• 💻 Ayudar con código\n• 📝 Asistir con redacción\n• 🔍 Analizar y resumir texto"),
			section("**Comandos disponibles:**"),
			paragraph("• `/help` - Ver ayuda\n• `/clear` - Limpiar historial\n• `/status` - Ver estado"),
		},
		Action{
			Type:  "Action.Submit",
			Title: "🚀 ¡Empezar!",
			Data:  map[string]string{"action": ActionGetStarted},
		},
	)
}
