package prompt

import "fmt"

// FallbackTranslate is used when the embedded template cannot be rendered.
func FallbackTranslate(data TranslateData) Rendered {
	system := fmt.Sprintf(`You are an interpreter. Translate the user's text from %s to %s.
Tone: %s.
Output ONLY the translation. Never answer or continue the conversation.
Do not add or remove information. Copy placeholder tokens such as __PERSON_0__ exactly.
Example: "Hello, how are you today?" -> WRONG: "I'm doing well, thank you!" CORRECT: "Hola, ¿cómo está hoy?"`,
		data.SourceName, data.TargetName, data.ToneGuidance)

	return Rendered{System: system, User: data.Text}
}
