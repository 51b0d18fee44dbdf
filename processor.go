// Copyright (c) 2023 Alexander Khudich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package touch

import (
	"fmt"
	"math"
)

// maxFlushIterations bounds Flush's blank-frame padding loop.
const maxFlushIterations = 200

// flushChunk is the number of blank frames Flush appends per iteration.
const flushChunk = 128

// stage is satisfied by *RateTransposer and *TimeStretch: a FifoPipe
// that also exposes its upstream input buffer and raw output buffer, for
// SoundTouchProcessor's crossover re-routing.
type stage interface {
	FifoPipe
	Input() *Float32Buffer
	Output() *Float32Buffer
	Latency() int
}

// SoundTouchProcessor orchestrates a RateTransposer and a TimeStretch,
// maps the user-visible (tempo, pitch, rate) triple to the effective
// (tempo, rate) pair, and re-routes the pipeline order as the effective
// rate crosses 1.0.
type SoundTouchProcessor struct {
	disposed bool

	channels      int
	channelsSet   bool
	sampleRate    int
	sampleRateSet bool

	tempo float64
	rate  float64
	pitch float64

	effectiveTempo float64
	effectiveRate  float64

	algorithm TransposerAlgorithm

	rateTransposer *RateTransposer
	timeStretch    *TimeStretch
	rateFirst      bool // true: RateTransposer -> TimeStretch (effectiveRate<=1)

	samplesExpectedOut float64
	samplesOutput      float64
}

// NewSoundTouchProcessor creates a processor with tempo=rate=pitch=1.0.
// SetSampleRate and SetChannels must both be called before PutSamples.
func NewSoundTouchProcessor() *SoundTouchProcessor {
	return &SoundTouchProcessor{
		tempo:     Defaults.Tempo,
		rate:      Defaults.Rate,
		pitch:     Defaults.Pitch,
		algorithm: Defaults.Algorithm,
	}
}

// Dispose marks the processor unusable; subsequent operations fail with
// ErrDisposed.
func (p *SoundTouchProcessor) Dispose() { p.disposed = true }

func (p *SoundTouchProcessor) checkAlive() error {
	if p.disposed {
		return ErrDisposed
	}
	return nil
}

// SetSampleRate sets the processing sample rate; channels must also be
// set before PutSamples is usable.
func (p *SoundTouchProcessor) SetSampleRate(sr int) error {
	if err := p.checkAlive(); err != nil {
		return err
	}
	if sr <= 0 || sr > 192000 {
		return fmt.Errorf("%w: sample rate %d must lie in (0,192000]", ErrInvalidArgument, sr)
	}
	p.sampleRate = sr
	p.sampleRateSet = true
	return p.ensureStages()
}

// SetChannels sets the channel count; sample rate must also be set
// before PutSamples is usable.
func (p *SoundTouchProcessor) SetChannels(ch int) error {
	if err := p.checkAlive(); err != nil {
		return err
	}
	if ch < 1 || ch > 16 {
		return fmt.Errorf("%w: channel count %d must lie in [1,16]", ErrInvalidArgument, ch)
	}
	p.channels = ch
	p.channelsSet = true
	return p.ensureStages()
}

// Channels and SampleRate report the current format.
func (p *SoundTouchProcessor) Channels() int   { return p.channels }
func (p *SoundTouchProcessor) SampleRate() int { return p.sampleRate }

// ensureStages (re)builds the RateTransposer and TimeStretch once both
// sample rate and channels are known, reapplying the currently
// configured tempo/rate/pitch.
func (p *SoundTouchProcessor) ensureStages() error {
	if !p.sampleRateSet || !p.channelsSet {
		return nil
	}
	rt, err := NewRateTransposer(p.channels, p.algorithm)
	if err != nil {
		return err
	}
	ts, err := NewTimeStretch(p.sampleRate, p.channels)
	if err != nil {
		return err
	}
	p.recalcEffective()
	if err := ts.SetTempo(p.effectiveTempo); err != nil {
		return err
	}
	rt.SetRate(p.effectiveRate)
	p.rateTransposer = rt
	p.timeStretch = ts
	p.rateFirst = p.effectiveRate <= 1
	return nil
}

// Tempo, Rate, Pitch return the current raw multipliers.
func (p *SoundTouchProcessor) Tempo() float64 { return p.tempo }
func (p *SoundTouchProcessor) Rate() float64  { return p.rate }
func (p *SoundTouchProcessor) Pitch() float64 { return p.pitch }

// SetTempo, SetRate, SetPitch set the raw multipliers (each must be >0).
func (p *SoundTouchProcessor) SetTempo(tempo float64) error {
	if tempo <= 0 {
		return fmt.Errorf("%w: tempo %v must be > 0", ErrInvalidArgument, tempo)
	}
	p.tempo = tempo
	return p.applyEffective()
}

func (p *SoundTouchProcessor) SetRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("%w: rate %v must be > 0", ErrInvalidArgument, rate)
	}
	p.rate = rate
	return p.applyEffective()
}

func (p *SoundTouchProcessor) SetPitch(pitch float64) error {
	if pitch <= 0 {
		return fmt.Errorf("%w: pitch %v must be > 0", ErrInvalidArgument, pitch)
	}
	p.pitch = pitch
	return p.applyEffective()
}

// SetTempoChange sets tempo from a percent change in [-50,+100].
func (p *SoundTouchProcessor) SetTempoChange(percent float64) error {
	if percent < -50 || percent > 100 {
		return fmt.Errorf("%w: tempo change %v%% must lie in [-50,100]", ErrInvalidArgument, percent)
	}
	return p.SetTempo(1 + percent/100)
}

// SetRateChange sets rate from a percent change in [-50,+100].
func (p *SoundTouchProcessor) SetRateChange(percent float64) error {
	if percent < -50 || percent > 100 {
		return fmt.Errorf("%w: rate change %v%% must lie in [-50,100]", ErrInvalidArgument, percent)
	}
	return p.SetRate(1 + percent/100)
}

// SetPitchOctaves sets pitch via octaves in [-1,+1]: pitch = 2^octaves.
func (p *SoundTouchProcessor) SetPitchOctaves(octaves float64) error {
	if octaves < -1 || octaves > 1 {
		return fmt.Errorf("%w: pitch octaves %v must lie in [-1,1]", ErrInvalidArgument, octaves)
	}
	return p.SetPitch(math.Pow(2, octaves))
}

// SetPitchSemitones sets pitch via semitones in [-12,+12]: pitch = 2^(semitones/12).
func (p *SoundTouchProcessor) SetPitchSemitones(semitones float64) error {
	if semitones < -12 || semitones > 12 {
		return fmt.Errorf("%w: pitch semitones %v must lie in [-12,12]", ErrInvalidArgument, semitones)
	}
	return p.SetPitch(math.Pow(2, semitones/12))
}

// recalcEffective derives effective_tempo and effective_rate from the
// current (tempo, pitch, rate) triple.
func (p *SoundTouchProcessor) recalcEffective() {
	p.effectiveTempo = p.tempo / p.pitch
	p.effectiveRate = p.pitch * p.rate
}

// applyEffective recalculates effective_tempo/effective_rate, pushes
// them to the stages if built, and re-routes the pipeline if the
// effective rate has crossed 1.0.
func (p *SoundTouchProcessor) applyEffective() error {
	p.recalcEffective()
	if p.timeStretch == nil {
		return nil
	}
	if err := p.timeStretch.SetTempo(p.effectiveTempo); err != nil {
		return err
	}
	p.rateTransposer.SetRate(p.effectiveRate)
	p.reroute()
	return nil
}

// head and tail return the current pipeline order's first and second
// stage, per p.rateFirst.
func (p *SoundTouchProcessor) head() stage {
	if p.rateFirst {
		return p.rateTransposer
	}
	return p.timeStretch
}

func (p *SoundTouchProcessor) tail() stage {
	if p.rateFirst {
		return p.timeStretch
	}
	return p.rateTransposer
}

// reroute implements the crossover re-routing triggered when the
// pipeline order flips: the already-buffered terminal output and the
// not-yet-processed head input are relocated to the new arrangement's
// corresponding stages, preserving order, without being reprocessed.
func (p *SoundTouchProcessor) reroute() {
	newRateFirst := p.effectiveRate <= 1
	if newRateFirst == p.rateFirst {
		return
	}
	oldHead, oldTail := p.head(), p.tail()
	p.rateFirst = newRateFirst
	newHead, newTail := p.head(), p.tail()

	_ = newTail.Output().MoveSamplesFrom(oldTail.Output())
	_ = newHead.Input().MoveSamplesFrom(oldHead.Input())
}

// PutSamples appends n frames of input and drives them through the
// current pipeline arrangement.
func (p *SoundTouchProcessor) PutSamples(src []float32, n int) error {
	if err := p.checkAlive(); err != nil {
		return err
	}
	if !p.sampleRateSet || !p.channelsSet {
		return fmt.Errorf("%w: sample rate and channels must be set before PutSamples", ErrInvalidState)
	}
	if err := p.head().PutSamples(src, n); err != nil {
		return err
	}
	p.pump()
	p.samplesExpectedOut += float64(n) / (p.effectiveRate * p.effectiveTempo)
	return nil
}

// pump drains whatever the head stage has produced into the tail stage,
// running the tail's own processing as a side effect of PutSamples.
func (p *SoundTouchProcessor) pump() {
	head := p.head()
	avail := head.Available()
	if avail == 0 {
		return
	}
	buf := make([]float32, avail*p.channels)
	n := head.Receive(buf, avail)
	if n > 0 {
		_ = p.tail().PutSamples(buf, n)
	}
}

// ReceiveSamples copies up to max frames of output into dst, removing
// them, and accumulates samples_output.
func (p *SoundTouchProcessor) ReceiveSamples(dst []float32, max int) int {
	n := p.tail().Receive(dst, max)
	p.samplesOutput += float64(n)
	return n
}

// DropSamples discards up to max frames of output without copying them.
func (p *SoundTouchProcessor) DropSamples(max int) int {
	n := p.tail().Drop(max)
	p.samplesOutput += float64(n)
	return n
}

// AvailableSamples returns the number of output frames ready to receive.
func (p *SoundTouchProcessor) AvailableSamples() int { return p.tail().Available() }

// IsEmpty reports whether there is no output ready to receive.
func (p *SoundTouchProcessor) IsEmpty() bool { return p.tail().IsEmpty() }

// UnprocessedSampleCount returns the number of frames still sitting in
// the head stage's input, not yet through the pipeline.
func (p *SoundTouchProcessor) UnprocessedSampleCount() int { return p.head().Input().Available() }

// Clear discards all buffered input and output in both stages and
// resets the accumulators.
func (p *SoundTouchProcessor) Clear() {
	if p.rateTransposer != nil {
		p.rateTransposer.Clear()
	}
	if p.timeStretch != nil {
		p.timeStretch.Clear()
	}
	p.samplesExpectedOut = 0
	p.samplesOutput = 0
}

// Flush pushes blank frames (flushChunk at a time, up to
// maxFlushIterations) until samples_output reaches samples_expected_out
// or no more output can appear. Input buffers end up drained; output is
// left intact for the receiver.
func (p *SoundTouchProcessor) Flush() error {
	if err := p.checkAlive(); err != nil {
		return err
	}
	blank := make([]float32, flushChunk*p.channels)
	for i := 0; i < maxFlushIterations; i++ {
		if p.samplesOutput+float64(p.tail().Available()) >= p.samplesExpectedOut {
			break
		}
		before := p.head().Input().Available() + p.tail().Input().Available()
		if err := p.head().PutSamples(blank, flushChunk); err != nil {
			return err
		}
		p.pump()
		after := p.head().Input().Available() + p.tail().Input().Available()
		if after >= before && p.tail().Available() == 0 {
			// No progress is being made (both stages are starved): stop
			// rather than spin for the full iteration cap.
			break
		}
	}
	target := int(math.Round(p.samplesExpectedOut - p.samplesOutput))
	if target >= 0 {
		_ = p.tail().AdjustAmount(target)
	}
	p.head().Input().Clear()
	p.tail().Input().Clear()
	return nil
}

// InputOutputSampleRatio returns 1 / (effective_rate * effective_tempo).
func (p *SoundTouchProcessor) InputOutputSampleRatio() float64 {
	return 1 / (p.effectiveRate * p.effectiveTempo)
}

// UseAntiAliasFilter and SetUseAntiAliasFilter expose the RateTransposer
// setting once the stages are built.
func (p *SoundTouchProcessor) UseAntiAliasFilter() bool {
	return p.rateTransposer != nil && p.rateTransposer.UseAntiAliasFilter()
}

func (p *SoundTouchProcessor) SetUseAntiAliasFilter(use bool) {
	if p.rateTransposer != nil {
		p.rateTransposer.SetUseAntiAliasFilter(use)
	}
}

// AntiAliasFilterLength and SetAntiAliasFilterLength expose the anti-alias tap count.
func (p *SoundTouchProcessor) AntiAliasFilterLength() int {
	if p.rateTransposer == nil {
		return 0
	}
	return p.rateTransposer.AntiAliasFilter().Taps()
}

func (p *SoundTouchProcessor) SetAntiAliasFilterLength(taps int) error {
	if p.rateTransposer == nil {
		return fmt.Errorf("%w: sample rate and channels must be set first", ErrInvalidState)
	}
	return p.rateTransposer.AntiAliasFilter().SetTaps(taps)
}

// UseQuickSeek and SetUseQuickSeek expose TimeStretch's search variant.
func (p *SoundTouchProcessor) UseQuickSeek() bool {
	return p.timeStretch != nil && p.timeStretch.QuickSeek()
}

func (p *SoundTouchProcessor) SetUseQuickSeek(quick bool) {
	if p.timeStretch != nil {
		p.timeStretch.SetQuickSeek(quick)
	}
}

// SequenceDurationMs, SeekWindowDurationMs, OverlapDurationMs and their
// setters expose TimeStretch's *_ms parameters (0 = auto).
func (p *SoundTouchProcessor) SequenceDurationMs() float64 {
	if p.timeStretch == nil {
		return 0
	}
	return p.timeStretch.SequenceMs()
}

func (p *SoundTouchProcessor) SetSequenceDurationMs(ms float64) error {
	if p.timeStretch == nil {
		return fmt.Errorf("%w: sample rate and channels must be set first", ErrInvalidState)
	}
	return p.timeStretch.SetSequenceMs(ms)
}

func (p *SoundTouchProcessor) SeekWindowDurationMs() float64 {
	if p.timeStretch == nil {
		return 0
	}
	return p.timeStretch.SeekWindowMs()
}

func (p *SoundTouchProcessor) SetSeekWindowDurationMs(ms float64) error {
	if p.timeStretch == nil {
		return fmt.Errorf("%w: sample rate and channels must be set first", ErrInvalidState)
	}
	return p.timeStretch.SetSeekWindowMs(ms)
}

func (p *SoundTouchProcessor) OverlapDurationMs() float64 {
	if p.timeStretch == nil {
		return 0
	}
	return p.timeStretch.OverlapMs()
}

func (p *SoundTouchProcessor) SetOverlapDurationMs(ms float64) error {
	if p.timeStretch == nil {
		return fmt.Errorf("%w: sample rate and channels must be set first", ErrInvalidState)
	}
	return p.timeStretch.SetOverlapMs(ms)
}

// NominalInputSequence and NominalOutputSequence are read-only derived
// quantities describing how many input/output frames one WSOLA cycle
// nominally spans.
func (p *SoundTouchProcessor) NominalInputSequence() int {
	if p.timeStretch == nil {
		return 0
	}
	return p.timeStretch.SeekWindowLen()
}

func (p *SoundTouchProcessor) NominalOutputSequence() int {
	if p.timeStretch == nil {
		return 0
	}
	return p.timeStretch.SeekWindowLen() - p.timeStretch.OverlapLen()
}

// InitialLatency is the time-stretcher latency plus the transposer
// latency, scaled by effective_rate when transposing precedes
// stretching (i.e. frames counted after the rate change run through
// fewer/more source-rate equivalents).
func (p *SoundTouchProcessor) InitialLatency() int {
	if p.timeStretch == nil || p.rateTransposer == nil {
		return 0
	}
	stretchLatency := p.timeStretch.Latency()
	transposerLatency := p.rateTransposer.Latency()
	if p.rateFirst {
		return int(float64(transposerLatency)/p.effectiveRate) + stretchLatency
	}
	return stretchLatency + int(float64(transposerLatency)*p.effectiveRate)
}
