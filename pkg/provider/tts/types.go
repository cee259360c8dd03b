package tts

// VoiceProfile selects how an answer is spoken.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier. Empty for providers that
	// pick the voice from Language alone.
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider identifies which TTS provider this voice belongs to.
	Provider string

	// Language is the BCP-47 language tag to speak in (e.g. "te").
	Language string

	// Metadata holds provider-specific voice attributes (gender, accent, etc.).
	Metadata map[string]string
}
