package ai

import (
	"fmt"
	"unicode/utf8"
)

// The analysis prompts are Spanish-facing, matching the product's audience.

const analystSystemPrompt = "Eres un analista histórico experto. Proporcionas análisis BREVES pero COMPLETOS. " +
	"FUNDAMENTAL: Siempre terminas tus respuestas, nunca las dejas inconclusas. " +
	"Máximo 150 palabras por respuesta. Nunca respondes con 'Lo siento'."

const categorizerSystemPrompt = "Categoriza en una palabra exacta: Política, Economía, Tecnología, Social, Internacional, Excluido"

func promptOrigin(title, description string) string {
	return fmt.Sprintf("Analiza el siguiente evento y explica ÚNICAMENTE sus antecedentes históricos y causas (máximo 200 palabras):\n\n"+
		"TÍTULO: %s\nDESCRIPCIÓN: %s\n\n"+
		"Responde SOLO con los antecedentes, sin introducción ni comentarios adicionales.",
		title, orDefault(description))
}

func promptImpact(title, description string) string {
	return fmt.Sprintf("Analiza el impacto del siguiente evento (máximo 200 palabras):\n\n"+
		"TÍTULO: %s\nDESCRIPCIÓN: %s\n\n"+
		"Explica ÚNICAMENTE las consecuencias económicas, sociales o políticas. Sin introducción.",
		title, orDefault(description))
}

func promptPrediction(title, description string) string {
	return fmt.Sprintf("Basándote en el siguiente evento, genera predicciones futuras (máximo 200 palabras):\n\n"+
		"TÍTULO: %s\nDESCRIPCIÓN: %s\n\n"+
		"Proporciona ÚNICAMENTE 2-3 escenarios posibles. Sin introducción.",
		title, orDefault(description))
}

func promptSimilarEvents(title, description string) string {
	return fmt.Sprintf("Lista EXACTAMENTE 3 eventos históricos similares al siguiente evento:\n\n"+
		"TÍTULO: %s\nDESCRIPCIÓN: %s\n\n"+
		"INSTRUCCIONES CRÍTICAS:\n"+
		"- Busca similitudes temáticas, tecnológicas, políticas o sociales\n"+
		"- NUNCA respondas 'Lo siento' o 'No puedo proporcionar'\n"+
		"- SIEMPRE encuentra eventos históricos reales, aunque la conexión sea temática\n"+
		"- Genera SIEMPRE 3 eventos diferentes y únicos\n\n"+
		"Formato requerido (respeta exactamente):\n"+
		"1. [Nombre específico del evento histórico (año)]\n"+
		"2. [Nombre específico del evento histórico (año)]\n"+
		"3. [Nombre específico del evento histórico (año)]\n\n"+
		"SOLO nombres de eventos específicos, sin explicaciones.",
		title, orDefault(description))
}

func promptSimilarEventDetail(similarEvent, currentTitle string) string {
	return fmt.Sprintf("Explica en 120-150 palabras cómo '%s' se relaciona con '%s':\n\n"+
		"INSTRUCCIONES CRÍTICAS:\n"+
		"- NUNCA comiences con 'Lo siento' o 'No puedo proporcionar'\n"+
		"- Sé CONCISO pero COMPLETO, máximo 150 palabras TOTAL\n"+
		"- Termina siempre las ideas, no las dejes a medias\n"+
		"- Si no conoces el evento exacto, enfócate en similitudes temáticas\n\n"+
		"Estructura BREVE:\n"+
		"**SIMILITUDES**: 2-3 conexiones principales\n"+
		"**LECCIONES**: Qué enseñanza histórica aporta\n"+
		"**DIFERENCIAS**: 1 diferencia contextual clave",
		similarEvent, currentTitle)
}

func promptCategorize(title, description string) string {
	return fmt.Sprintf("Categoriza EXACTAMENTE en una palabra:\n"+
		"Opciones: Política, Economía, Tecnología, Social, Internacional, Excluido\n\n"+
		"Título: %s\nTexto: %s\n\nCategoría:",
		title, truncateRunes(description, 200))
}

func orDefault(description string) string {
	if description == "" {
		return "Sin descripción adicional"
	}
	return description
}

// truncateRunes cuts s to at most n runes without appending an ellipsis.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
