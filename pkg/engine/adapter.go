// Package engine defines the opaque contract the driver requires from a
// native text-to-speech engine, and a mock implementation for tests and the
// demo CLI.
package engine

import "context"

// Callback is invoked by the engine exactly once per Speak call, on
// completion of an utterance, possibly from a different goroutine than the
// one that called Speak. ptr is the raw callback buffer (header included),
// markers is the "name:pos|..." string (or empty). The callback must never
// block the engine's internal thread for long and must never panic; engine
// adapters are expected to recover from a panicking callback themselves if
// the underlying engine cannot tolerate one escaping.
type Callback func(ptr []byte, markers string)

// Handle is an opaque engine session returned by Initialize.
type Handle any

// Adapter is the thin contract over the native engine: init, terminate,
// setProperty, setVoice, speak, install callback, getVoices,
// getCurrentVoiceId/Language. The adapter owns freeing any engine-owned
// string it returns (e.g. platform BSTR semantics) — callers never see an
// unfreed resource.
type Adapter interface {
	// Initialize starts the engine and returns a handle for subsequent
	// calls. It should fail promptly rather than hang; pkg/driver enforces
	// the bounded-wait InitializationFailure timeout around this call.
	Initialize(ctx context.Context) (Handle, error)

	// Terminate shuts the engine down. Must be called before the callback
	// closure installed via SetCallback is released.
	Terminate(h Handle) error

	// SetCallback installs the completion callback. The engine retains a
	// reference to fn for the lifetime of h.
	SetCallback(h Handle, fn Callback) error

	// Speak submits ssml for asynchronous synthesis. It returns once
	// submission has been accepted; completion is reported via the
	// installed Callback, invoked exactly once.
	Speak(h Handle, ssml string) error

	// SetProperty sets an integer-valued engine property, e.g.
	// "MSTTS.SpeakRate" or "MSTTS.Pitch".
	SetProperty(h Handle, name string, value int) error

	// GetVoices returns the "id1:name1|id2:name2|..." voice list.
	GetVoices(h Handle) (string, error)

	// GetCurrentVoiceID returns the currently selected voice's id.
	GetCurrentVoiceID(h Handle) (string, error)

	// GetCurrentVoiceLanguage returns the currently selected voice's
	// language tag.
	GetCurrentVoiceLanguage(h Handle) (string, error)

	// SetVoice selects the voice at the given index into the GetVoices
	// ordering.
	SetVoice(h Handle, index uint32) error
}
