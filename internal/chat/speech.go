package chat

import "strings"

// scripturesHeading starts the verse listing of an answer. Everything from it
// onwards is left out of the spoken text.
const scripturesHeading = "Relevant Scriptures"

// SpeechText derives the text to synthesize from a full answer: the part
// before the first scriptures heading, without markdown bold markers.
func SpeechText(answer string) string {
	main, _, _ := strings.Cut(answer, scripturesHeading)
	return strings.TrimSpace(strings.ReplaceAll(main, "**", ""))
}
