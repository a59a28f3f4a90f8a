// Package transcribe converts voice payloads into text for the classifier
// chain. Transcription is strictly best-effort: any failure (download,
// unsupported format, recognizer error, unintelligible audio) yields no
// transcript, and the caller leaves the message alone. A garbled
// transcript deleting an innocent voice note is worse than a missed one.
package transcribe

import (
	"context"

	"github.com/storozh/moderator/internal/message"
)

// Transcriber converts a voice payload into text. An empty transcript
// with a nil error means the audio was processed but contained no
// recognizable speech; both outcomes leave the message unmoderated.
type Transcriber interface {
	Transcribe(ctx context.Context, voice *message.Voice) (string, error)
}
