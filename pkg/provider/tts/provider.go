// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (Google Translate TTS,
// ElevenLabs) and presents a uniform request/response interface: the whole
// answer text goes in, one encoded MP3 document comes out. The audio artifact
// manager writes that document to disk, so partial audio is never useful and
// providers report mid-stream failures as errors rather than short output.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use. Concurrent chat requests
// synthesize in parallel.
type Provider interface {
	// Synthesize returns the MP3-encoded speech for text spoken with voice.
	// Providers that need a voice ID return an error when voice.ID is empty;
	// language-only providers use voice.Language.
	//
	// Returns an error if text is empty, if the backend fails, or if ctx is
	// cancelled before the audio is complete.
	Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error)

	// ListVoices returns all voice profiles available from this provider.
	ListVoices(ctx context.Context) ([]VoiceProfile, error)
}
