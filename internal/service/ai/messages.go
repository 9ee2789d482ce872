package ai

import (
	"strings"

	"github.com/zhouzirui/teams-relay/backend/pkg/utils"
)

const disabledPreviewRunes = 50

const (
	msgQuotaExceeded      = "⚠️ Se ha excedido la cuota de la API de IA. Por favor, verifica tu cuenta de facturación."
	msgInvalidCredentials = "⚠️ La clave de API de IA es inválida. Por favor, verifica la configuración."
	msgRateLimited        = "⚠️ Se ha excedido el límite de solicitudes. Por favor, intenta de nuevo en unos segundos."
	msgTimeout            = "⏱️ El servicio de IA tardó demasiado en responder. Por favor, intenta de nuevo."
	msgGeneric            = "❌ Lo siento, ocurrió un error al procesar tu mensaje. Por favor, intenta de nuevo."
)

// FallbackMessage returns the user-facing text for a classified failure.
// BackendDisabled is handled by DisabledReply since it echoes the input.
func FallbackMessage(f Failure) string {
	switch f {
	case FailureQuotaExceeded:
		return msgQuotaExceeded
	case FailureInvalidCredentials:
		return msgInvalidCredentials
	case FailureRateLimited:
		return msgRateLimited
	case FailureTimeout:
		return msgTimeout
	default:
		return msgGeneric
	}
}

// DisabledReply is the canned answer when no backend is configured.
func DisabledReply(latestUserText string) string {
	return strings.Join([]string{
		"👋 ¡Hola! Soy un bot de Teams. La integración con IA no está configurada actualmente.",
		`📝 Recibí tu mensaje: "` + utils.Preview(latestUserText, disabledPreviewRunes) + `"`,
		"💡 Para habilitar respuestas de IA, configura OPENAI_API_KEY en las variables de entorno.",
	}, "\n\n")
}
