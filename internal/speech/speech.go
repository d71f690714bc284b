// Package speech defines the voice-input capability used by entry forms.
// The daemon itself has no microphone access; clients that do can plug in a
// real recognizer, and everything else gets the inert no-op implementation.
package speech

import "context"

// Input is a push-to-talk speech recognizer. Start begins a recognition
// session; partial hypotheses arrive via onPartial and the settled
// transcript via onFinal. Stop ends the session and flushes the final
// result. Implementations must tolerate Stop without a prior Start.
type Input interface {
	Available() bool
	Start(ctx context.Context, onPartial func(text string), onFinal func(text string)) error
	Stop() error
}

// Default returns the platform speech input. No platform in this build
// ships a recognizer, so this is the no-op input everywhere for now.
func Default() Input { return NewNoOp() }

// NoOp is the default Input on platforms without a recognizer. It reports
// unavailable and recognizes nothing.
type NoOp struct{}

// NewNoOp returns the inert speech input.
func NewNoOp() *NoOp { return &NoOp{} }

func (*NoOp) Available() bool { return false }

func (*NoOp) Start(ctx context.Context, onPartial func(string), onFinal func(string)) error {
	return nil
}

func (*NoOp) Stop() error { return nil }
