package providers

import (
	"context"
)

// SpeechRenderer turns text into synthesized audio
type SpeechRenderer interface {
	// Synthesize returns encoded audio bytes for text
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
