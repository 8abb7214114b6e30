package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvancedMockAdapter_SpeakInvokesCallback(t *testing.T) {
	m := NewAdvancedMockAdapter(WithVoices("0:Alpha|1:Beta"))
	h, err := m.Initialize(context.Background())
	require.NoError(t, err)

	var gotMarkers string
	require.NoError(t, m.SetCallback(h, func(ptr []byte, markers string) {
		gotMarkers = markers
	}))

	require.NoError(t, m.Speak(h, "<speak/>"))
	assert.Equal(t, "", gotMarkers)
	assert.Equal(t, []string{"<speak/>"}, m.SpeakCalls())
}

func TestAdvancedMockAdapter_FireCallback(t *testing.T) {
	m := NewAdvancedMockAdapter()
	h, _ := m.Initialize(context.Background())
	var got string
	require.NoError(t, m.SetCallback(h, func(ptr []byte, markers string) { got = markers }))
	m.FireCallback(make([]byte, 44), "1:5000000")
	assert.Equal(t, "1:5000000", got)
}

func TestAdvancedMockAdapter_InitError(t *testing.T) {
	m := NewAdvancedMockAdapter(WithInitError(ErrMock))
	_, err := m.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrMock)
}

func TestAdvancedMockAdapter_Voices(t *testing.T) {
	m := NewAdvancedMockAdapter(WithVoices("0:Alpha|1:Beta"), WithCurrentVoice("1", "en-GB"))
	h, _ := m.Initialize(context.Background())
	voices, err := m.GetVoices(h)
	require.NoError(t, err)
	assert.Equal(t, "0:Alpha|1:Beta", voices)

	lang, err := m.GetCurrentVoiceLanguage(h)
	require.NoError(t, err)
	assert.Equal(t, "en-GB", lang)
}
