// Package transport plays a loaded file through an effect chain on an
// output device.
//
// An [Engine] owns one source, one settings snapshot and at most one live
// pipeline:
//
//	source -> seek/skip -> effect chain -> prefetch ring -> meter tap -> device
//
// The chain is never mutated while a device is pulling from it. Every
// settings change, seek or resume tears the sink down, builds a new chain
// over the repositioned source and installs a new sink. Positions are
// reported in source time and estimated from the wall clock, since tempo
// and pitch change how fast the source is consumed.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/audio/decode"
	"github.com/cwbudde/algo-fxplayer/dsp/effectchain"
	"github.com/cwbudde/algo-fxplayer/dsp/meter"
	"github.com/cwbudde/algo-fxplayer/dsp/resample"
	"github.com/cwbudde/algo-fxplayer/dsp/window"
	"github.com/cwbudde/algo-fxplayer/export"
	"github.com/cwbudde/algo-fxplayer/internal/logger"
)

// ErrClosed is returned by operations on a closed Engine.
var ErrClosed = errors.New("transport: engine closed")

// Engine is the playback state machine. All methods are safe for
// concurrent use.
type Engine struct {
	device         Device
	log            *logger.Logger
	clock          Clock
	debounce       time.Duration
	interval       time.Duration
	quality        resample.Quality
	prefetchFrames int
	fftSize        int
	window         window.Type
	exporter       *export.Exporter
	registry       *effectchain.Registry

	// mu serializes settings mutation, rebuilds and sink changes.
	mu         sync.Mutex
	rebuilding atomic.Bool
	closed     bool

	state     State
	source    *decode.Source
	path      string
	base      time.Duration
	settings  effectchain.Settings
	chain     *effectchain.Chain
	pre       *prefetcher
	sink      Sink
	deviceErr error

	debounceTimer *time.Timer
	debounceGen   uint64

	view     atomic.Int32
	pos      *positionClock
	rebuilds atomic.Uint64

	tap        *meter.Tap
	analyzerMu sync.Mutex
	analyzer   *meter.Analyzer
	levels     atomic.Pointer[meter.Levels]

	subsMu sync.Mutex
	subs   map[int]chan Event
	nextID int

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a stopped engine playing through device and starts its
// position sampler. Call Close to release it.
func New(device Device, opts ...Option) (*Engine, error) {
	if device == nil {
		return nil, errors.New("transport: nil device")
	}

	e := &Engine{
		device:         device,
		log:            logger.Discard(),
		clock:          systemClock{},
		debounce:       DefaultDebounce,
		interval:       DefaultPositionInterval,
		quality:        resample.QualityBalanced,
		prefetchFrames: defaultPrefetchFrames,
		fftSize:        DefaultFFTSize,
		window:         window.Hann,
		settings:       effectchain.DefaultSettings(),
		subs:           make(map[int]chan Event),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.exporter == nil {
		e.exporter = export.New(export.WithLogger(e.log), export.WithQuality(e.quality))
	}

	tap, err := meter.NewTap(e.fftSize)
	if err != nil {
		return nil, err
	}
	analyzer, err := meter.NewAnalyzer(tap, e.fftSize, float64(audio.Canonical.SampleRate),
		meter.WithWindow(e.window))
	if err != nil {
		return nil, err
	}
	e.tap, e.analyzer = tap, analyzer
	e.pos = newPositionClock(e.clock)

	go e.sample()
	return e, nil
}

// Load opens path and makes it the current source. Playback stops; the
// previous source is closed only once the new one opened successfully.
func (e *Engine) Load(path string) error {
	src, err := decode.Open(path, decode.WithQuality(e.quality))
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		src.Close()
		return ErrClosed
	}

	e.cancelDebounceLocked()
	e.teardownLocked()
	if e.source != nil {
		if err := e.source.Close(); err != nil {
			e.log.Error("close %s: %v", e.path, err)
		}
	}

	e.source, e.path, e.base = src, path, src.Duration()
	e.chain = nil
	e.updateTimingLocked()
	e.pos.hold(0)
	e.setStateLocked(Stopped)

	info := src.Info()
	e.log.Info("loaded %s: %s %v, %v", path, info.Container, info.Format, e.base)
	e.emit(Event{Kind: EventLoaded, State: Stopped, Path: path, Total: e.pos.Total()})
	return nil
}

// Play starts or resumes playback at the current position.
//
// A device failure that ended the previous playback is returned once,
// wrapped in audio.ErrDeviceInit, before playback can resume.
func (e *Engine) Play() error {
	e.waitForRebuild(rebuildWait)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.source == nil {
		return audio.ErrNoSourceLoaded
	}
	if err := e.deviceErr; err != nil {
		e.deviceErr = nil
		return fmt.Errorf("%w: %v", audio.ErrDeviceInit, err)
	}
	if e.state == Playing {
		return nil
	}

	pos := e.pos.Position()
	if err := e.startLocked(pos); err != nil {
		e.failLocked(err)
		return err
	}
	e.setStateLocked(Playing)
	return nil
}

// Pause stops the device and keeps the position and chain.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Playing {
		return
	}

	pos := e.pos.Position()
	e.teardownLocked()
	e.pos.hold(pos)
	e.setStateLocked(Paused)
}

// Stop releases the device and rewinds to the start.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelDebounceLocked()
	e.stopLocked()
}

// Seek moves to pos in source time, clamped to [0, TotalTime]. While
// playing the sink is swapped without leaving the Playing state.
func (e *Engine) Seek(pos time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.source == nil {
		return audio.ErrNoSourceLoaded
	}

	pos = e.pos.clampSeek(pos)
	if e.state == Playing {
		e.teardownLocked()
		if err := e.startLocked(pos); err != nil {
			e.failLocked(err)
			return err
		}
	} else {
		e.pos.hold(pos)
	}

	e.emit(Event{Kind: EventPosition, State: e.state, Position: pos, Total: e.pos.Total()})
	return nil
}

// Process rebuilds the chain from the current settings. With
// preservePosition the new chain starts where playback is now, otherwise
// at the beginning. A call made while another rebuild runs is dropped.
func (e *Engine) Process(preservePosition bool) error {
	if !e.rebuilding.CompareAndSwap(false, true) {
		e.log.Debug("rebuild already in progress, request dropped")
		return nil
	}
	defer e.rebuilding.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.processLocked(preservePosition)
}

func (e *Engine) processLocked(preservePosition bool) error {
	if e.source == nil {
		return audio.ErrNoSourceLoaded
	}

	var pos time.Duration
	if preservePosition {
		pos = e.pos.Position()
	}
	e.updateTimingLocked()

	if e.state == Playing {
		e.teardownLocked()
		if err := e.startLocked(pos); err != nil {
			e.failLocked(err)
			return err
		}
		return nil
	}

	chain, err := e.buildLocked(e.pos.clamp(pos))
	if err != nil {
		return err
	}
	e.chain = chain
	e.pos.hold(pos)
	return nil
}

// Settings returns the current snapshot.
func (e *Engine) Settings() effectchain.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// SetSettings stores s and, if playing, rebuilds immediately.
func (e *Engine) SetSettings(s effectchain.Settings) error {
	e.mu.Lock()
	e.settings = s.Clamped()
	e.cancelDebounceLocked()
	if e.state != Playing {
		e.retimeLocked()
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	return e.Process(true)
}

// UpdateSettings stores s. While playing, the rebuild waits for the
// debounce interval so a burst of updates costs a single rebuild with the
// last snapshot.
func (e *Engine) UpdateSettings(s effectchain.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.settings = s.Clamped()
	if e.state != Playing {
		e.retimeLocked()
		return
	}
	e.armDebounceLocked()
}

// MergeSettings applies a partial JSON snapshot on top of the current
// one. Fields missing from partial keep their values.
func (e *Engine) MergeSettings(partial []byte) error {
	s := e.Settings()
	if err := s.Merge(partial); err != nil {
		return err
	}
	e.UpdateSettings(s)
	return nil
}

func (e *Engine) armDebounceLocked() {
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
	}
	e.debounceGen++
	gen := e.debounceGen
	e.debounceTimer = time.AfterFunc(e.debounce, func() { e.debounced(gen) })
}

func (e *Engine) cancelDebounceLocked() {
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
		e.debounceTimer = nil
	}
	e.debounceGen++
}

func (e *Engine) debounced(gen uint64) {
	if !e.rebuilding.CompareAndSwap(false, true) {
		// Try again once the running rebuild is done.
		e.mu.Lock()
		if gen == e.debounceGen {
			e.armDebounceLocked()
		}
		e.mu.Unlock()
		return
	}
	defer e.rebuilding.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.debounceGen || e.state != Playing {
		return
	}
	e.debounceTimer = nil
	if err := e.processLocked(true); err != nil {
		e.log.Error("rebuild after settings update: %v", err)
		e.emit(Event{Kind: EventError, State: e.state, Err: err})
	}
}

// State returns the current state.
func (e *Engine) State() State { return State(e.view.Load()) }

// IsPlaying reports whether the engine is in the Playing state.
func (e *Engine) IsPlaying() bool { return e.State() == Playing }

// Position returns the estimated playback position in source time.
func (e *Engine) Position() time.Duration { return e.pos.Position() }

// TotalTime returns the source duration divided by the tempo.
func (e *Engine) TotalTime() time.Duration { return e.pos.Total() }

// Duration returns the unscaled source duration.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.base
}

// Path returns the loaded file, or "".
func (e *Engine) Path() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

// Units returns the effect kinds of the current chain.
func (e *Engine) Units() []effectchain.Kind {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.chain == nil {
		return nil
	}
	return e.chain.Units()
}

// Rebuilds returns how many chains have been built since New.
func (e *Engine) Rebuilds() uint64 { return e.rebuilds.Load() }

// Levels returns peak and RMS of the recently played signal as of the
// last sampler tick.
func (e *Engine) Levels() meter.Levels {
	if lv := e.levels.Load(); lv != nil {
		return *lv
	}
	return meter.Levels{PeakDB: meter.FloorDB, RMSDB: meter.FloorDB}
}

// Spectrum returns the magnitude spectrum of the recently played signal
// in dBFS, reduced to bins bands by taking the maximum of each band. A
// bins value <= 0 returns every FFT bin.
func (e *Engine) Spectrum(bins int) []float64 {
	e.analyzerMu.Lock()
	full := e.analyzer.Spectrum()
	e.analyzerMu.Unlock()

	if bins <= 0 || bins >= len(full) {
		return append([]float64(nil), full...)
	}
	out := make([]float64, bins)
	for b := range out {
		lo := b * len(full) / bins
		hi := max((b+1)*len(full)/bins, lo+1)
		m := full[lo]
		for _, v := range full[lo+1 : hi] {
			m = max(m, v)
		}
		out[b] = m
	}
	return out
}

// ExportResult is delivered by Export.
type ExportResult struct {
	export.Result
	Err error
}

// Export renders the loaded file with the current settings to target on
// its own goroutine. The returned channel yields exactly one result.
func (e *Engine) Export(ctx context.Context, target string, format export.Format, progress export.ProgressFunc) <-chan ExportResult {
	out := make(chan ExportResult, 1)

	e.mu.Lock()
	path, settings := e.path, e.settings
	loaded := e.source != nil
	e.mu.Unlock()

	if !loaded {
		out <- ExportResult{Err: audio.ErrNoSourceLoaded}
		close(out)
		return out
	}

	go func() {
		defer close(out)
		res, err := e.exporter.Export(ctx, export.Request{
			SourcePath: path,
			Target:     target,
			Settings:   settings,
			Format:     format,
		}, progress)
		out <- ExportResult{Result: res, Err: err}
	}()
	return out
}

// Subscribe registers an observer. Events are dropped for subscribers
// whose buffer is full. The returned function unsubscribes and closes the
// channel.
func (e *Engine) Subscribe(buf int) (<-chan Event, func()) {
	ch := make(chan Event, max(buf, 1))

	e.subsMu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	e.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subsMu.Lock()
			defer e.subsMu.Unlock()
			if c, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(c)
			}
		})
	}
}

func (e *Engine) emit(ev Event) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close stops playback, closes the source and all subscriptions.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.quit)
		<-e.done

		e.mu.Lock()
		e.cancelDebounceLocked()
		e.stopLocked()
		if e.source != nil {
			err = e.source.Close()
			e.source = nil
		}
		e.closed = true
		e.mu.Unlock()

		e.subsMu.Lock()
		for id, ch := range e.subs {
			delete(e.subs, id)
			close(ch)
		}
		e.subsMu.Unlock()
	})
	return err
}

// buildLocked positions the source at pos and builds a chain over it.
func (e *Engine) buildLocked(pos time.Duration) (*effectchain.Chain, error) {
	frame := audio.Canonical.Frames(pos)
	if err := e.source.Seek(frame); err != nil {
		return nil, err
	}

	var src audio.Stream = e.source
	if gap := frame - e.source.Position(); gap > 0 {
		// Block-aligned containers land early; Skip gives up quietly if
		// the file ends first.
		src = audio.Skip(src, gap)
	}

	opts := []effectchain.Option{effectchain.WithContext(effectchain.Context{Quality: e.quality})}
	if e.registry != nil {
		opts = append(opts, effectchain.WithRegistry(e.registry))
	}
	chain, err := effectchain.Build(e.settings, src, opts...)
	if err != nil {
		return nil, err
	}
	if err := chain.Validate(); err != nil {
		return nil, err
	}

	e.rebuilds.Add(1)
	e.log.Info("chain rebuilt at %v: %v", pos, chain.Units())
	e.emit(Event{Kind: EventRebuilt, State: e.state, Position: pos, Total: e.pos.Total(),
		Units: chain.Units(), Settings: chain.Settings()})
	return chain, nil
}

// startLocked builds a chain at pos and installs a playing sink on it.
func (e *Engine) startLocked(pos time.Duration) error {
	chain, err := e.buildLocked(pos)
	if err != nil {
		return err
	}

	pre := newPrefetcher(chain.Output(), e.prefetchFrames)
	pre.start()
	pre.fill(e.prefetchFrames/2, prefillWait)

	sink, err := e.device.Open(audio.NewReader(e.tap.Wrap(pre)))
	if err != nil {
		pre.stop()
		return fmt.Errorf("%w: %v", audio.ErrDeviceInit, err)
	}
	sink.Play()

	e.chain, e.pre, e.sink = chain, pre, sink
	e.pos.start(pos)
	e.log.Debug("sink started at %v", pos)
	return nil
}

// teardownLocked closes the sink before stopping the prefetcher so the
// device never reads from a stopped pipeline.
func (e *Engine) teardownLocked() {
	if e.sink != nil {
		if err := e.sink.Close(); err != nil {
			e.log.Error("close sink: %v", err)
		}
		e.sink = nil
		e.log.Debug("sink stopped")
	}
	if e.pre != nil {
		e.pre.stop()
		e.pre = nil
	}
}

func (e *Engine) stopLocked() {
	e.teardownLocked()
	e.chain = nil
	if e.source != nil {
		if err := e.source.Seek(0); err != nil {
			e.log.Error("rewind %s: %v", e.path, err)
		}
	}
	e.pos.hold(0)
	e.setStateLocked(Stopped)
}

// failLocked handles a failed (re)start: the engine ends up stopped and
// observers see the error.
func (e *Engine) failLocked(err error) {
	e.log.Error("start playback: %v", err)
	e.stopLocked()
	e.emit(Event{Kind: EventError, State: Stopped, Err: err})
}

func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}
	e.state = s
	e.view.Store(int32(s))
	e.emit(Event{Kind: EventState, State: s, Position: e.pos.Position(), Total: e.pos.Total()})
}

// updateTimingLocked derives speed and total time from the tempo. Pitch
// keeps the length and does not take part.
func (e *Engine) updateTimingLocked() {
	tempo := e.settings.Tempo
	e.pos.setSpeed(tempo)
	e.pos.setTiming(e.base, time.Duration(float64(e.base)/tempo))
}

// retimeLocked applies new timing while not playing, keeping the held
// position.
func (e *Engine) retimeLocked() {
	pos := e.pos.Position()
	e.updateTimingLocked()
	e.pos.hold(pos)
}

func (e *Engine) waitForRebuild(limit time.Duration) {
	deadline := time.Now().Add(limit)
	for e.rebuilding.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}

// sample is the periodic position sampler.
func (e *Engine) sample() {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.quit:
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Engine) tick() {
	e.refreshLevels()
	if e.State() != Playing {
		return
	}
	e.emit(Event{Kind: EventPosition, State: Playing, Position: e.pos.Position(), Total: e.pos.Total()})
	e.checkSink()
}

func (e *Engine) refreshLevels() {
	e.analyzerMu.Lock()
	lv := e.analyzer.Levels()
	e.analyzerMu.Unlock()
	e.levels.Store(&lv)
}

// checkSink turns a sink that stopped on its own into a transition to
// Stopped. A device error is kept for the next Play.
func (e *Engine) checkSink() {
	if !e.mu.TryLock() {
		return
	}
	defer e.mu.Unlock()

	if e.state != Playing || e.sink == nil || e.sink.IsPlaying() {
		return
	}

	if err := e.sink.Err(); err != nil {
		e.log.Error("device stopped: %v", err)
		e.deviceErr = err
		e.emit(Event{Kind: EventError, State: Playing, Err: err})
	} else if err := e.pre.Err(); err != nil {
		e.log.Error("decode %s: %v", e.path, err)
		e.emit(Event{Kind: EventError, State: Playing, Err: err})
	} else {
		e.log.Info("playback of %s finished", e.path)
	}
	e.stopLocked()
}
