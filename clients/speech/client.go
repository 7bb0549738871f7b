// Package speech defines the text-to-speech capability and its AWS Polly
// implementation.
package speech

import "context"

// Client synthesizes a single utterance into MP3 bytes using the given voice.
type Client interface {
	Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error)
}
