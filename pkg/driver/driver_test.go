package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pd360/onecoretts/o11y"
	"github.com/pd360/onecoretts/pkg/engine"
	"github.com/pd360/onecoretts/pkg/playback"
	"github.com/pd360/onecoretts/pkg/speech"
	"github.com/pd360/onecoretts/pkg/voice"
)

type fakeReader struct{}

func (fakeReader) Valid(ctx context.Context, id string) (bool, error) { return true, nil }

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.InitTimeout = time.Second
	return cfg
}

func newTestDriver(t *testing.T, adapter *engine.AdvancedMockAdapter, player *playback.AdvancedMockWavePlayer) Driver {
	t.Helper()
	d, err := New(context.Background(), testConfig(), adapter, player, fakeReader{}, o11y.NewLogger())
	require.NoError(t, err)
	return d
}

// queueLen and processing read worker-owned state by running a closure on
// the worker goroutine itself, avoiding a data race with direct field
// access from the test goroutine.
func queueLen(impl *driverImpl) int {
	ch := make(chan int, 1)
	done := make(chan struct{})
	_ = impl.enqueue(func() { ch <- len(impl.pendingQueue); close(done) })
	<-done
	return <-ch
}

func processing(impl *driverImpl) bool {
	ch := make(chan bool, 1)
	done := make(chan struct{})
	_ = impl.enqueue(func() { ch <- impl.isProcessing; close(done) })
	<-done
	return <-ch
}

func TestNew_EnumeratesVoicesAndCurrentVoice(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter(engine.WithVoices("0:Alpha|1:Beta"), engine.WithCurrentVoice("1", "en-US"))
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	voices, err := d.AvailableVoices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, voice.List{{ID: "0", Name: "Alpha"}, {ID: "1", Name: "Beta"}}, voices)
}

func TestNew_AdapterInitErrorBecomesInitializationFailure(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter(engine.WithInitError(engine.ErrMock))
	player := playback.NewAdvancedMockWavePlayer()
	cfg := testConfig()

	_, err := New(context.Background(), cfg, adapter, player, fakeReader{}, o11y.NewLogger())
	require.Error(t, err)
	assert.True(t, IsInitializationFailure(err))
}

func TestNew_InitTimeoutBecomesInitializationFailure(t *testing.T) {
	block := make(chan struct{})
	adapter := &blockingInitAdapter{AdvancedMockAdapter: engine.NewAdvancedMockAdapter(), block: block}
	player := playback.NewAdvancedMockWavePlayer()
	cfg := testConfig()
	cfg.InitTimeout = 20 * time.Millisecond
	defer close(block)

	_, err := New(context.Background(), cfg, adapter, player, fakeReader{}, o11y.NewLogger())
	require.Error(t, err)
	assert.True(t, IsInitializationFailure(err))
}

// blockingInitAdapter wraps AdvancedMockAdapter to block Initialize until
// the test closes block, exercising the bounded-wait timeout path.
type blockingInitAdapter struct {
	*engine.AdvancedMockAdapter
	block chan struct{}
}

func (a *blockingInitAdapter) Initialize(ctx context.Context) (engine.Handle, error) {
	select {
	case <-a.block:
		return a.AdvancedMockAdapter.Initialize(ctx)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSpeak_SubmitsImmediatelyWhenIdle(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	err := d.Speak(context.Background(), speech.Sequence{speech.TextItem("hello")})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(adapter.SpeakCalls()) == 1 }, time.Second, time.Millisecond)
	assert.Contains(t, adapter.SpeakCalls()[0], "hello")
}

func TestSpeak_QueuesWhenProcessing(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)
	impl := d.(*driverImpl)

	// Force isProcessing true directly via the worker, rather than a real
	// Speak, to avoid a race with the mock's synchronous auto-callback
	// (see AdvancedMockAdapter.Speak).
	done := make(chan struct{})
	_ = impl.enqueue(func() {
		impl.isProcessing = true
		close(done)
	})
	<-done

	err := d.Speak(context.Background(), speech.Sequence{speech.TextItem("queued")})
	require.NoError(t, err)

	assert.Empty(t, adapter.SpeakCalls())
	assert.Equal(t, 1, queueLen(impl))
}

func TestOnUtteranceEnd_PopsQueueAndSubmits(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)
	impl := d.(*driverImpl)

	done := make(chan struct{})
	_ = impl.enqueue(func() {
		impl.isProcessing = true
		impl.pendingQueue = append(impl.pendingQueue, "<speak>queued</speak>")
		close(done)
	})
	<-done

	impl.OnUtteranceEnd()

	assert.Eventually(t, func() bool { return len(adapter.SpeakCalls()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "<speak>queued</speak>", adapter.SpeakCalls()[0])
}

func TestOnUtteranceEnd_IdlesWhenQueueEmpty(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)
	impl := d.(*driverImpl)

	done := make(chan struct{})
	_ = impl.enqueue(func() {
		impl.isProcessing = true
		close(done)
	})
	<-done

	impl.OnUtteranceEnd()

	assert.Eventually(t, func() bool { return !processing(impl) }, time.Second, time.Millisecond)
}

func TestCancel_ClearsQueueAndStopsPlayer(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)
	impl := d.(*driverImpl)

	done := make(chan struct{})
	_ = impl.enqueue(func() {
		impl.pendingQueue = append(impl.pendingQueue, "<speak>a</speak>", "<speak>b</speak>")
		close(done)
	})
	<-done

	d.Cancel()

	assert.True(t, impl.WasCancelled())
	assert.Eventually(t, player.Stopped, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return queueLen(impl) == 0 }, time.Second, time.Millisecond)
}

func TestSetRateGetRate_RoundTrip(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	require.NoError(t, d.SetRate(context.Background(), 75))
	assert.InDelta(t, 75, d.GetRate(), 1)
}

func TestSetPitchGetPitch_RoundTrip(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	require.NoError(t, d.SetPitch(context.Background(), 30))
	assert.InDelta(t, 30, d.GetPitch(), 1)
}

func TestSetRate_RejectsOutOfRange(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	err := d.SetRate(context.Background(), 150)
	assert.Error(t, err)
}

func TestSetVolumeGetVolume_RoundTrip(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	require.NoError(t, d.SetVolume(40))
	assert.Equal(t, 40, d.GetVolume())
}

func TestSetVoice_NoSuchVoice(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter(engine.WithVoices("0:Alpha"))
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	err := d.SetVoice(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNoSuchVoice(err))
}

func TestSetVoice_Found(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter(engine.WithVoices("0:Alpha|1:Beta"))
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	require.NoError(t, d.SetVoice(context.Background(), "1"))
}

func TestLanguage_DelegatesToEngine(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter(engine.WithCurrentVoice("0", "fr-FR"))
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	lang, err := d.Language(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", lang)
}

func TestSpeak_EngineErrorPropagates(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter(engine.WithSpeakError(engine.ErrMock))
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	err := d.Speak(context.Background(), speech.Sequence{speech.TextItem("hi")})
	require.Error(t, err)
	assert.True(t, IsEngineError(err))
}

func TestSpeak_RejectsInvalidSequenceWithoutReachingEngine(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	seq := speech.Sequence{speech.CommandItem(speech.Phoneme{IPA: "", FallbackText: ""})}
	err := d.Speak(context.Background(), seq)

	require.Error(t, err)
	assert.True(t, IsInvalidSequence(err))
	assert.Empty(t, adapter.SpeakCalls())
}

func TestAvailableVoices_RegistryDisabledReturnsEverything(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter(engine.WithVoices("0:Alpha|1:Beta"))
	player := playback.NewAdvancedMockWavePlayer()
	cfg := testConfig()
	cfg.RegistryValidationEnabled = false
	d, err := New(context.Background(), cfg, adapter, player, rejectingReader{}, o11y.NewLogger())
	require.NoError(t, err)

	voices, err := d.AvailableVoices(context.Background())
	require.NoError(t, err)
	assert.Len(t, voices, 2)
}

func TestAvailableVoices_RegistryEnabledFiltersInvalid(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter(engine.WithVoices("0:Alpha|1:Beta"))
	player := playback.NewAdvancedMockWavePlayer()
	cfg := testConfig()
	cfg.RegistryValidationEnabled = true
	d, err := New(context.Background(), cfg, adapter, player, rejectingReader{}, o11y.NewLogger())
	require.NoError(t, err)

	voices, err := d.AvailableVoices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, voices)
}

type rejectingReader struct{}

func (rejectingReader) Valid(ctx context.Context, id string) (bool, error) {
	return false, errors.New("not found")
}

func TestTerminate_StopsPlayerThenEngine(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	require.NoError(t, d.Terminate())
	assert.True(t, player.Stopped())
	assert.True(t, adapter.Terminated())
}

func TestTerminate_Idempotent(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)

	require.NoError(t, d.Terminate())
	require.NoError(t, d.Terminate())
}

func TestSpeak_AfterTerminateReturnsError(t *testing.T) {
	adapter := engine.NewAdvancedMockAdapter()
	player := playback.NewAdvancedMockWavePlayer()
	d := newTestDriver(t, adapter, player)
	require.NoError(t, d.Terminate())

	err := d.Speak(context.Background(), speech.Sequence{speech.TextItem("x")})
	assert.Error(t, err)
}
