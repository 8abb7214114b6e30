// Package driver implements the state machine that binds the SSML
// converter, the playback pipeline, and an engine adapter into a single
// public Driver: speak/cancel/terminate plus the rate/pitch/volume/voice
// settings surface.
package driver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pd360/onecoretts/o11y"
	"github.com/pd360/onecoretts/pkg/engine"
	"github.com/pd360/onecoretts/pkg/playback"
	"github.com/pd360/onecoretts/pkg/speech"
	"github.com/pd360/onecoretts/pkg/ssml"
	"github.com/pd360/onecoretts/pkg/voice"
)

const (
	minRateOrPitch = -100
	maxRateOrPitch = 100
)

// Driver is the public surface called by the screen reader host.
type Driver interface {
	// Speak converts seq to SSML and either submits it to the engine
	// immediately or appends it to the pending queue if an utterance is
	// already in flight.
	Speak(ctx context.Context, seq speech.Sequence) error

	// Cancel aborts the in-flight utterance (if any) and empties the
	// pending queue. It is idempotent and does not block on the engine
	// callback returning.
	Cancel()

	// Terminate stops the wave player, then terminates the engine on the
	// worker goroutine and shuts the worker down. The callback installed
	// via SetCallback is not released by the driver. The Driver must not be
	// used afterward.
	Terminate() error

	SetRate(ctx context.Context, percent int) error
	GetRate() int
	SetPitch(ctx context.Context, percent int) error
	GetPitch() int
	SetVolume(percent int) error
	GetVolume() int
	SetVoice(ctx context.Context, id string) error
	Language(ctx context.Context) (string, error)

	// LastIndex returns the most recently reached marker and whether any
	// marker has been reached yet.
	LastIndex() (uint32, bool)

	// AvailableVoices returns the engine's voice list, filtered by
	// registry validity when the Config enables it.
	AvailableVoices(ctx context.Context) (voice.List, error)

	// State returns a point-in-time snapshot of the worker's state, for
	// read-only diagnostics surfaces such as pkg/monitor.
	State() State
}

// State is a read-only snapshot of a driverImpl's worker state, returned by
// Driver.State. It never round-trips back into the driver.
type State struct {
	IsProcessing    bool   `json:"is_processing"`
	PendingQueueLen int    `json:"pending_queue_len"`
	WasCancelled    bool   `json:"was_cancelled"`
	LastIndex       uint32 `json:"last_index,omitempty"`
	HasLastIndex    bool   `json:"has_last_index"`
	Rate            int    `json:"rate"`
	Pitch           int    `json:"pitch"`
	Volume          int    `json:"volume"`
	CurrentVoice    string `json:"current_voice"`
}

// Option configures optional extension points on a driverImpl, following
// the pack's typed functional-option idiom.
type Option func(*driverImpl)

// WithConverterOptions passes ssml.Options through to every Converter this
// driver builds, the composition point spec's engine-specific override
// requires (suppressing CharacterMode, forcing a base volume).
func WithConverterOptions(opts ...ssml.Option) Option {
	return func(d *driverImpl) { d.converterOpts = opts }
}

type driverImpl struct {
	cfg         *Config
	adapter     engine.Adapter
	handle      engine.Handle
	player      playback.WavePlayer
	pipeline    *playback.Pipeline
	voiceReader voice.Reader
	logger      *o11y.Logger
	rootCtx     context.Context
	m           *metrics

	converterOpts []ssml.Option
	voiceList     voice.List

	jobs chan func()

	mu           sync.RWMutex
	terminated   bool
	isProcessing bool
	pendingQueue []string
	currentVoice string

	wasCancelled atomic.Bool
	lastIndex    atomic.Uint32
	hasLastIndex atomic.Bool
	rate         atomic.Int32
	pitch        atomic.Int32
	volume       atomic.Int32
}

// New allocates the engine handle and wave-player pipeline, installs the
// completion callback, enumerates voices, and starts the worker goroutine
// that serializes every subsequent engine call — grounded on
// oneCore.py's BgThread/bgQueue: a single goroutine owns the engine for
// the life of the driver, eliminating the races option (a) in the design
// notes would otherwise require a mutex for.
func New(ctx context.Context, cfg *Config, adapter engine.Adapter, player playback.WavePlayer, voiceReader voice.Reader, logger *o11y.Logger, opts ...Option) (Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rootCtx := o11y.WithLogger(context.Background(), logger)

	d := &driverImpl{
		cfg:         cfg,
		adapter:     adapter,
		player:      player,
		voiceReader: voiceReader,
		logger:      logger,
		rootCtx:     rootCtx,
		m:           newMetrics(),
		jobs:        make(chan func(), 64),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.pipeline = playback.NewPipeline(cfg.PlaybackConfig(), player)
	d.rate.Store(int32(cfg.DefaultRate))
	d.pitch.Store(int32(cfg.DefaultPitch))
	d.volume.Store(int32(cfg.DefaultVolume))

	initCtx, cancel := context.WithTimeout(ctx, cfg.InitTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(initCtx)
	g.Go(func() error {
		h, err := adapter.Initialize(gctx)
		if err != nil {
			return err
		}
		d.handle = h
		return nil
	})
	if err := g.Wait(); err != nil {
		if initCtx.Err() != nil {
			return nil, newInitializationFailure("New", "engine initialization timed out", initCtx.Err())
		}
		return nil, newInitializationFailure("New", "engine initialization failed", err)
	}

	if err := adapter.SetCallback(d.handle, d.onEngineCallback); err != nil {
		return nil, newInitializationFailure("New", "installing engine callback failed", err)
	}

	voicesStr, err := adapter.GetVoices(d.handle)
	if err != nil {
		return nil, newInitializationFailure("New", "enumerating voices failed", err)
	}
	d.voiceList = voice.Parse(voicesStr)
	logger.Debug(rootCtx, "voices enumerated", "count", len(d.voiceList))

	if id, err := adapter.GetCurrentVoiceID(d.handle); err == nil {
		d.currentVoice = id
	}

	go d.run()
	return d, nil
}

func (d *driverImpl) run() {
	for job := range d.jobs {
		job()
	}
}

// enqueue sends fn to the worker goroutine, refusing after Terminate.
func (d *driverImpl) enqueue(fn func()) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.terminated {
		return fmt.Errorf("driver terminated")
	}
	d.jobs <- fn
	return nil
}

// Speak implements Driver.
func (d *driverImpl) Speak(ctx context.Context, seq speech.Sequence) error {
	if err := seq.Validate(); err != nil {
		return newInvalidSequence("Speak", err)
	}

	utteranceID := uuid.New()
	ctx, span := o11y.StartSpan(ctx, "driver.Speak", o11y.Attrs{"utterance_id": utteranceID.String()})
	defer span.End()
	stop := d.m.speakTimer(ctx)
	defer stop()

	effective := prependVolume(seq, float64(d.volume.Load())/100.0)
	doc := ssml.NewConverter(d.cfg.DefaultLanguage, d.converterOpts...).Convert(ctx, effective)

	errCh := make(chan error, 1)
	if err := d.enqueue(func() { errCh <- d.handleSpeak(ctx, doc) }); err != nil {
		return err
	}
	return <-errCh
}

func (d *driverImpl) handleSpeak(ctx context.Context, doc string) error {
	if d.isProcessing {
		d.pendingQueue = append(d.pendingQueue, doc)
		d.m.recordQueued(ctx)
		return nil
	}
	return d.submit(ctx, doc)
}

func (d *driverImpl) submit(ctx context.Context, doc string) error {
	d.isProcessing = true
	d.wasCancelled.Store(false)
	if err := d.adapter.Speak(d.handle, doc); err != nil {
		d.isProcessing = false
		return newEngineError("Speak", err)
	}
	d.m.recordSpoken(ctx)
	return nil
}

// Cancel implements Driver. wasCancelled flips immediately as a plain
// atomic so the engine thread's feed loop observes it promptly even
// though the pending-queue clear is serialized behind any job already
// queued on the worker.
func (d *driverImpl) Cancel() {
	d.wasCancelled.Store(true)
	if err := d.player.Stop(); err != nil {
		d.logger.WithOp("driver.Cancel").Warn(d.rootCtx, "wave player stop failed during cancel", "error", err)
	}
	_ = d.enqueue(func() {
		n := len(d.pendingQueue)
		d.pendingQueue = nil
		d.m.recordQueueCleared(d.rootCtx, n)
		d.m.recordCancelled(d.rootCtx)
	})
}

// Terminate implements Driver.
func (d *driverImpl) Terminate() error {
	d.mu.Lock()
	if d.terminated {
		d.mu.Unlock()
		return nil
	}
	d.terminated = true
	d.mu.Unlock()

	if err := d.player.Stop(); err != nil {
		d.logger.WithOp("driver.Terminate").Warn(d.rootCtx, "wave player stop failed during terminate", "error", err)
	}

	errCh := make(chan error, 1)
	d.jobs <- func() { errCh <- d.adapter.Terminate(d.handle) }
	err := <-errCh
	close(d.jobs)
	if err != nil {
		return newEngineError("Terminate", err)
	}
	return nil
}

// onEngineCallback is the trampoline installed via SetCallback. It must
// never panic or block the engine's internal thread for long, and must
// never let an error escape — per spec the callback always returns a
// success code, even on a recoverable fault.
func (d *driverImpl) onEngineCallback(ptr []byte, markers string) {
	d.pipeline.Deliver(d.rootCtx, ptr, markers, d)
}

// WasCancelled implements playback.Observer.
func (d *driverImpl) WasCancelled() bool { return d.wasCancelled.Load() }

// SetLastIndex implements playback.Observer.
func (d *driverImpl) SetLastIndex(name uint32) {
	d.lastIndex.Store(name)
	d.hasLastIndex.Store(true)
}

// OnUtteranceEnd implements playback.Observer.
func (d *driverImpl) OnUtteranceEnd() {
	if err := d.enqueue(func() { d.handleUtteranceEnd(d.rootCtx) }); err != nil {
		d.logger.WithOp("driver.OnUtteranceEnd").Debug(d.rootCtx, "dropping utterance-end notification after terminate")
	}
}

func (d *driverImpl) handleUtteranceEnd(ctx context.Context) {
	if len(d.pendingQueue) > 0 {
		next := d.pendingQueue[0]
		d.pendingQueue = d.pendingQueue[1:]
		d.m.recordDequeued(ctx)
		d.wasCancelled.Store(false)
		if err := d.adapter.Speak(d.handle, next); err != nil {
			d.logger.WithOp("driver.Speak").Error(ctx, "failed to submit queued utterance", "error", err)
			d.isProcessing = false
			return
		}
		d.m.recordSpoken(ctx)
		return
	}
	d.isProcessing = false
}

// SetRate implements Driver.
func (d *driverImpl) SetRate(ctx context.Context, percent int) error {
	return d.setProperty(ctx, "SetRate", "MSTTS.SpeakRate", percent, &d.rate)
}

// GetRate implements Driver.
func (d *driverImpl) GetRate() int { return int(d.rate.Load()) }

// SetPitch implements Driver.
func (d *driverImpl) SetPitch(ctx context.Context, percent int) error {
	return d.setProperty(ctx, "SetPitch", "MSTTS.Pitch", percent, &d.pitch)
}

// GetPitch implements Driver.
func (d *driverImpl) GetPitch() int { return int(d.pitch.Load()) }

func (d *driverImpl) setProperty(ctx context.Context, op, propName string, percent int, cache *atomic.Int32) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%s: percent %d out of range [0,100]", op, percent)
	}
	engineVal := percentToEngineRange(percent)
	errCh := make(chan error, 1)
	if err := d.enqueue(func() { errCh <- d.adapter.SetProperty(d.handle, propName, engineVal) }); err != nil {
		return err
	}
	if err := <-errCh; err != nil {
		return newEngineError(op, err)
	}
	cache.Store(int32(percent))
	return nil
}

// SetVolume implements Driver. Volume never reaches the engine via
// SetProperty; it is cached and folded into the next Speak's SSML as a
// prepended speech.Volume command, per spec §4.4.
func (d *driverImpl) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("SetVolume: percent %d out of range [0,100]", percent)
	}
	d.volume.Store(int32(percent))
	return nil
}

// GetVolume implements Driver.
func (d *driverImpl) GetVolume() int { return int(d.volume.Load()) }

// SetVoice implements Driver.
func (d *driverImpl) SetVoice(ctx context.Context, id string) error {
	idx, ok := d.voiceList.IndexOf(id)
	if !ok {
		return newNoSuchVoice("SetVoice", id)
	}
	errCh := make(chan error, 1)
	if err := d.enqueue(func() { errCh <- d.adapter.SetVoice(d.handle, uint32(idx)) }); err != nil {
		return err
	}
	if err := <-errCh; err != nil {
		return newEngineError("SetVoice", err)
	}
	d.mu.Lock()
	d.currentVoice = id
	d.mu.Unlock()
	return nil
}

// Language implements Driver.
func (d *driverImpl) Language(ctx context.Context) (string, error) {
	type result struct {
		lang string
		err  error
	}
	ch := make(chan result, 1)
	if err := d.enqueue(func() {
		lang, err := d.adapter.GetCurrentVoiceLanguage(d.handle)
		ch <- result{lang, err}
	}); err != nil {
		return "", err
	}
	r := <-ch
	if r.err != nil {
		return "", newEngineError("Language", r.err)
	}
	return r.lang, nil
}

// LastIndex implements Driver.
func (d *driverImpl) LastIndex() (uint32, bool) {
	return d.lastIndex.Load(), d.hasLastIndex.Load()
}

// State implements Driver. IsProcessing and PendingQueueLen are read by
// running a closure on the worker goroutine itself, since those two fields
// are worker-owned and never touched under d.mu.
func (d *driverImpl) State() State {
	type snap struct {
		processing bool
		queueLen   int
	}
	ch := make(chan snap, 1)
	if err := d.enqueue(func() { ch <- snap{d.isProcessing, len(d.pendingQueue)} }); err != nil {
		ch <- snap{}
	}
	s := <-ch

	d.mu.RLock()
	voiceID := d.currentVoice
	d.mu.RUnlock()

	lastIndex, hasLastIndex := d.LastIndex()
	return State{
		IsProcessing:    s.processing,
		PendingQueueLen: s.queueLen,
		WasCancelled:    d.wasCancelled.Load(),
		LastIndex:       lastIndex,
		HasLastIndex:    hasLastIndex,
		Rate:            d.GetRate(),
		Pitch:           d.GetPitch(),
		Volume:          d.GetVolume(),
		CurrentVoice:    voiceID,
	}
}

// AvailableVoices implements Driver.
func (d *driverImpl) AvailableVoices(ctx context.Context) (voice.List, error) {
	if !d.cfg.RegistryValidationEnabled {
		return d.voiceList, nil
	}
	return voice.FilterValid(ctx, d.voiceList, d.voiceReader, func(id string, err error) {
		d.logger.WithOp("driver.AvailableVoices").Debug(ctx, "voice excluded by registry validation", "voice_id", id, "error", err)
	}), nil
}

// percentToEngineRange maps [0,100] linearly onto [minRateOrPitch,
// maxRateOrPitch].
func percentToEngineRange(percent int) int {
	return minRateOrPitch + percent*(maxRateOrPitch-minRateOrPitch)/100
}

// prependVolume folds the driver's cached volume multiplier into seq as a
// synthetic leading Volume command, so it travels through the same
// conversion path (and default/delAttr-at-1.0 rule) as a sequence-supplied
// Volume command.
func prependVolume(seq speech.Sequence, multiplier float64) speech.Sequence {
	out := make(speech.Sequence, 0, len(seq)+1)
	out = append(out, speech.CommandItem(speech.Volume{Multiplier: multiplier}))
	out = append(out, seq...)
	return out
}
