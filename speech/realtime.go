//go:build dictation

package speech

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types for the realtime WebSocket protocol.
type initMessage struct {
	Type       string `json:"type"`
	ModelID    string `json:"model_id,omitempty"`
	Language   string `json:"language,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
}

type audioMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio"` // Base64 encoded
}

type serverMessage struct {
	Type       string `json:"type"`
	Transcript *struct {
		Text    string `json:"text"`
		IsFinal bool   `json:"is_final"`
	} `json:"transcript,omitempty"`
	Message string `json:"message,omitempty"`
}

// Available reports whether dictation can be used on this build.
func Available() bool {
	if os.Getenv("ELEVENLABS_API_KEY") == "" {
		return false
	}
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// recognizer streams microphone audio over the realtime WebSocket.
type recognizer struct {
	apiKey   string
	language string
	debug    bool

	mu      sync.Mutex
	conn    *websocket.Conn
	mic     *exec.Cmd
	updates chan Update
	closed  bool
}

// NewRecognizer creates a dictation recognizer. The capability is checked at
// creation: both an API key and a capture tool must be present.
func NewRecognizer() (Recognizer, error) {
	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, ErrUnavailable
	}

	return &recognizer{
		apiKey:   apiKey,
		language: os.Getenv("DOODLEPRESS_LANGUAGE"),
		debug:    os.Getenv("DOODLEPRESS_DEBUG") != "",
	}, nil
}

// micCommand builds the platform's microphone capture command: raw 16-bit
// mono PCM on stdout at the realtime API's sample rate.
func micCommand() *exec.Cmd {
	output := []string{"-f", "s16le", "-ar", fmt.Sprint(DefaultSampleRate), "-ac", "1", "pipe:1"}

	switch runtime.GOOS {
	case "darwin":
		return exec.Command("ffmpeg", append([]string{"-f", "avfoundation", "-i", ":0"}, output...)...)
	case "windows":
		return exec.Command("ffmpeg", append([]string{"-f", "dshow", "-i", "audio=default"}, output...)...)
	default:
		return exec.Command("ffmpeg", append([]string{"-f", "alsa", "-i", "default"}, output...)...)
	}
}

// Start connects the WebSocket, starts microphone capture, and begins
// forwarding audio and transcripts.
func (r *recognizer) Start() (<-chan Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil, fmt.Errorf("already started")
	}

	url := fmt.Sprintf("%s?xi-api-key=%s", RealtimeWebSocketURL, r.apiKey)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.Dial(url, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	init := initMessage{
		Type:       "init",
		ModelID:    ModelRealtime,
		Language:   r.language,
		SampleRate: DefaultSampleRate,
		Encoding:   DefaultEncoding,
	}
	if err := conn.WriteJSON(init); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send init message: %w", err)
	}

	mic := micCommand()
	stdout, err := mic.StdoutPipe()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open microphone pipe: %w", err)
	}
	mic.Stderr = nil
	if err := mic.Start(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to start microphone capture: %w", err)
	}

	r.conn = conn
	r.mic = mic
	r.updates = make(chan Update, 16)
	r.closed = false

	go r.pumpAudio(stdout)
	go r.readTranscripts()

	return r.updates, nil
}

// pumpAudio streams microphone PCM to the WebSocket in 100ms chunks.
func (r *recognizer) pumpAudio(src io.Reader) {
	const bytesPerSample = 2
	chunk := make([]byte, DefaultSampleRate*bytesPerSample/10)

	for {
		n, err := src.Read(chunk)
		if n > 0 {
			msg := audioMessage{
				Type:  "audio",
				Audio: base64.StdEncoding.EncodeToString(chunk[:n]),
			}
			r.mu.Lock()
			conn, closed := r.conn, r.closed
			if conn != nil && !closed {
				err = conn.WriteJSON(msg)
			}
			r.mu.Unlock()
			if err != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// send delivers an update unless the stream has been closed. Updates are
// dropped rather than blocking when the consumer falls behind.
func (r *recognizer) send(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.updates <- u:
	default:
	}
}

// closeUpdates closes the update stream exactly once.
func (r *recognizer) closeUpdates() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.updates)
	}
}

// readTranscripts forwards server transcripts into the update stream until
// the connection ends.
func (r *recognizer) readTranscripts() {
	defer r.closeUpdates()

	for {
		r.mu.Lock()
		conn, closed := r.conn, r.closed
		r.mu.Unlock()
		if conn == nil || closed {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			r.send(Update{Err: fmt.Errorf("dictation stream ended: %w", err)})
			return
		}

		if r.debug {
			fmt.Printf("[DEBUG] Received: %s\n", string(data))
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "transcript":
			if msg.Transcript != nil && msg.Transcript.Text != "" {
				r.send(Update{Text: msg.Transcript.Text, Final: msg.Transcript.IsFinal})
			}
		case "error":
			r.send(Update{Err: fmt.Errorf("dictation error: %s", msg.Message)})
			return
		}
	}
}

// Stop ends capture and closes the update stream.
func (r *recognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updates == nil || (r.closed && r.conn == nil) {
		return nil
	}

	if r.mic != nil && r.mic.Process != nil {
		r.mic.Process.Kill()
		go r.mic.Wait()
		r.mic = nil
	}

	var err error
	if r.conn != nil {
		r.conn.WriteJSON(map[string]string{"type": "flush"})
		err = r.conn.Close()
		r.conn = nil
	}

	if !r.closed {
		r.closed = true
		close(r.updates)
	}

	return err
}
