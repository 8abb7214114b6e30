package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"
)

// AdvancedMockAdapter is a configurable Adapter test double, grounded on
// the AdvancedMockTTSProvider pattern: an embedded testify mock.Mock,
// functional MockOptions, and explicit call-count/state accessors instead
// of sleep-based synchronization.
type AdvancedMockAdapter struct {
	mock.Mock
	mu              sync.Mutex
	voices          string
	currentVoiceID  string
	currentLanguage string
	speakCalls      []string
	terminated      bool
	initErr         error
	speakErr        error
	callback        Callback
}

// MockOption configures an AdvancedMockAdapter.
type MockOption func(*AdvancedMockAdapter)

// WithVoices sets the "id:name|..." string returned from GetVoices.
func WithVoices(voices string) MockOption {
	return func(m *AdvancedMockAdapter) { m.voices = voices }
}

// WithCurrentVoice sets the id/language returned by GetCurrentVoiceID and
// GetCurrentVoiceLanguage.
func WithCurrentVoice(id, language string) MockOption {
	return func(m *AdvancedMockAdapter) {
		m.currentVoiceID = id
		m.currentLanguage = language
	}
}

// WithInitError makes Initialize fail with err.
func WithInitError(err error) MockOption {
	return func(m *AdvancedMockAdapter) { m.initErr = err }
}

// WithSpeakError makes Speak fail with err.
func WithSpeakError(err error) MockOption {
	return func(m *AdvancedMockAdapter) { m.speakErr = err }
}

// NewAdvancedMockAdapter creates a mock Adapter with the given options
// applied.
func NewAdvancedMockAdapter(opts ...MockOption) *AdvancedMockAdapter {
	m := &AdvancedMockAdapter{
		voices:          "0:Default Voice",
		currentVoiceID:  "0",
		currentLanguage: "en-US",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize implements Adapter.
func (m *AdvancedMockAdapter) Initialize(ctx context.Context) (Handle, error) {
	if m.initErr != nil {
		return nil, m.initErr
	}
	return "mock-handle", nil
}

// Terminate implements Adapter.
func (m *AdvancedMockAdapter) Terminate(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminated = true
	return nil
}

// SetCallback implements Adapter.
func (m *AdvancedMockAdapter) SetCallback(h Handle, fn Callback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = fn
	return nil
}

// Speak implements Adapter. It records the submitted ssml and, if the
// caller has installed a callback via SetCallback, invokes it with a fake
// PCM buffer so tests can exercise the full driver pipeline without a real
// engine. The fake buffer carries no markers unless FireCallback is used
// directly by the test.
func (m *AdvancedMockAdapter) Speak(h Handle, ssml string) error {
	m.mu.Lock()
	m.speakCalls = append(m.speakCalls, ssml)
	cb := m.callback
	err := m.speakErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if cb != nil {
		cb(make([]byte, 44), "")
	}
	return nil
}

// FireCallback lets a test drive the installed callback explicitly, with a
// specific buffer and marker string, simulating the engine's asynchronous
// completion notification.
func (m *AdvancedMockAdapter) FireCallback(ptr []byte, markers string) {
	m.mu.Lock()
	cb := m.callback
	m.mu.Unlock()
	if cb == nil {
		return
	}
	cb(ptr, markers)
}

// SetProperty implements Adapter.
func (m *AdvancedMockAdapter) SetProperty(h Handle, name string, value int) error {
	if m.ExpectedCalls != nil && len(m.ExpectedCalls) > 0 {
		args := m.Called(h, name, value)
		return args.Error(0)
	}
	return nil
}

// GetVoices implements Adapter.
func (m *AdvancedMockAdapter) GetVoices(h Handle) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voices, nil
}

// GetCurrentVoiceID implements Adapter.
func (m *AdvancedMockAdapter) GetCurrentVoiceID(h Handle) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentVoiceID, nil
}

// GetCurrentVoiceLanguage implements Adapter.
func (m *AdvancedMockAdapter) GetCurrentVoiceLanguage(h Handle) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLanguage, nil
}

// SetVoice implements Adapter.
func (m *AdvancedMockAdapter) SetVoice(h Handle, index uint32) error {
	return nil
}

// SpeakCalls returns every ssml document passed to Speak, in call order.
func (m *AdvancedMockAdapter) SpeakCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.speakCalls))
	copy(out, m.speakCalls)
	return out
}

// Terminated reports whether Terminate has been called.
func (m *AdvancedMockAdapter) Terminated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.terminated
}

// ErrMock is a sentinel usable with WithInitError/WithSpeakError in tests.
var ErrMock = errors.New("mock engine error")
