// Package speech provides optional dictation for the prompt screen: capture
// microphone audio and stream it through the ElevenLabs realtime
// speech-to-text API. The capability is narrow by design — start, stop, and
// a stream of partial-transcript events — so the rest of the application
// stays environment-agnostic. Builds without the dictation tag get a stub
// that reports the capability as unavailable.
package speech

import "errors"

const (
	// RealtimeWebSocketURL is the ElevenLabs realtime speech-to-text endpoint
	RealtimeWebSocketURL = "wss://api.elevenlabs.io/v1/speech-to-text/realtime"

	// ModelRealtime is the realtime transcription model
	ModelRealtime = "scribe_v2_realtime"

	// DefaultSampleRate for microphone capture
	DefaultSampleRate = 16000

	// DefaultEncoding for audio input
	DefaultEncoding = "pcm_s16le"
)

// ErrUnavailable is returned when dictation cannot be used: built without
// the dictation tag, no API key configured, or no capture tool on the host.
var ErrUnavailable = errors.New("dictation not available: build with -tags=dictation, set ELEVENLABS_API_KEY, and install ffmpeg")

// Update is one partial-transcript event. Interim updates (Final=false) are
// echo-only; final updates are appended to the transcript. A non-nil Err
// ends the stream.
type Update struct {
	Text  string
	Final bool
	Err   error
}

// Recognizer captures audio and emits transcript updates until stopped.
type Recognizer interface {
	// Start begins capture and returns the update stream. The stream is
	// closed when the recognizer stops or fails.
	Start() (<-chan Update, error)

	// Stop ends capture and closes the update stream.
	Stop() error
}
