package bot

// Chat-delivered strings are Spanish; everything operator-facing stays
// English.
const (
	helpText = "Hola! Soy tu bot IA.\n\n" +
		"Comandos:\n" +
		"/start /help - Mostrar ayuda\n" +
		"/imagen <texto> - Generar imagen con IA\n" +
		"/voz <texto> - Generar audio (mp3) con TTS\n\n" +
		"Si escribes cualquier otra cosa, responderé usando ChatGPT."

	imageUsage     = "Usa: /imagen <descripción de la imagen>"
	speechUsage    = "Usa: /voz <texto a convertir en audio>"
	imageWorking   = "Generando imagen... ⏳"
	speechWorking  = "Generando audio... ⏳"
	imageFallback  = "No pude generar la imagen. Intenta de nuevo más tarde."
	speechFallback = "No pude generar el audio. Intenta luego."
	chatFallback   = "Lo siento, ocurrió un error al procesar la respuesta."

	imageCaptionPrefix = "Imagen: "
)
