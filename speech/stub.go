//go:build !dictation

package speech

// Available reports whether dictation can be used on this build.
func Available() bool {
	return false
}

// NewRecognizer creates a dictation recognizer.
// Note: this is a stub. Build with -tags=dictation to enable.
func NewRecognizer() (Recognizer, error) {
	return nil, ErrUnavailable
}
