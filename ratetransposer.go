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

import "math"

// RateTransposer couples a Transposer and an AntiAliasFilter with three
// FIFO buffers (input/mid/output), ordering the filter and the
// interpolator by rate direction.
type RateTransposer struct {
	FifoProcessor

	input *Float32Buffer
	mid   *Float32Buffer

	transposer   *Transposer
	antiAlias    *AntiAliasFilter
	useAntiAlias bool

	channels int
	rate     float64
}

// NewRateTransposer creates a rate transposer for the given channel
// count and algorithm, with identity rate (1.0) and anti-aliasing on.
func NewRateTransposer(channels int, algo TransposerAlgorithm) (*RateTransposer, error) {
	tr, err := NewTransposer(algo, channels)
	if err != nil {
		return nil, err
	}
	rt := &RateTransposer{
		input:        NewFloat32Buffer(channels, 4096),
		mid:          NewFloat32Buffer(channels, 4096),
		transposer:   tr,
		antiAlias:    NewAntiAliasFilter(),
		useAntiAlias: true,
		channels:     channels,
		rate:         1.0,
	}
	rt.output = NewFloat32Buffer(channels, 4096)
	rt.setCutoff()
	return rt, nil
}

// SetChannels updates the channel count of the transposer and all three
// internal buffers. It fails if the Shannon kernel is selected and ch>1,
// leaving the transposer's channel count unchanged.
func (rt *RateTransposer) SetChannels(ch int) error {
	if err := rt.transposer.SetChannels(ch); err != nil {
		return err
	}
	rt.channels = ch
	rt.input.SetChannels(ch)
	rt.mid.SetChannels(ch)
	rt.output.SetChannels(ch)
	return nil
}

// Rate returns the current resample rate.
func (rt *RateTransposer) Rate() float64 { return rt.rate }

// SetRate reconfigures both the transposer and the anti-alias cutoff:
// fc = min(0.5/rate, 0.5*rate).
func (rt *RateTransposer) SetRate(rate float64) {
	rt.rate = rate
	rt.transposer.SetRate(rate)
	rt.setCutoff()
}

func (rt *RateTransposer) setCutoff() {
	fc := math.Min(0.5/rt.rate, 0.5*rt.rate)
	if fc <= 0 {
		fc = 0.01
	}
	if fc >= 0.5 {
		fc = 0.499
	}
	_ = rt.antiAlias.SetCutoff(fc)
}

// UseAntiAliasFilter reports whether the anti-alias filter stage runs.
func (rt *RateTransposer) UseAntiAliasFilter() bool { return rt.useAntiAlias }

// SetUseAntiAliasFilter enables or disables the anti-alias filter stage.
func (rt *RateTransposer) SetUseAntiAliasFilter(use bool) { rt.useAntiAlias = use }

// AntiAliasFilter exposes the internal filter for tap-count tuning.
func (rt *RateTransposer) AntiAliasFilter() *AntiAliasFilter { return rt.antiAlias }

// Latency returns the filter length when filtering is enabled, else 0.
func (rt *RateTransposer) Latency() int {
	if !rt.useAntiAlias {
		return 0
	}
	return rt.antiAlias.Length()
}

// Clear discards all buffered frames in every internal stage and resets
// the transposer's fractional position.
func (rt *RateTransposer) Clear() {
	rt.input.Clear()
	rt.mid.Clear()
	rt.output.Clear()
	rt.transposer.Reset()
}

// Input exposes the upstream input buffer, e.g. for SoundTouchProcessor
// crossover re-routing.
func (rt *RateTransposer) Input() *Float32Buffer { return rt.input }

// Output exposes the terminal output buffer directly, for
// SoundTouchProcessor's crossover re-routing (a raw buffer move, not a
// re-run through the transpose/filter pipeline).
func (rt *RateTransposer) Output() *Float32Buffer { return rt.output }

// PutSamples appends n frames to the transposer's input and runs the
// transpose/filter pipeline as far as input data allows.
func (rt *RateTransposer) PutSamples(src []float32, n int) error {
	if err := rt.input.PutSamples(src, n); err != nil {
		return err
	}
	rt.process()
	return nil
}

// process drains as much of the input as is available through the
// transpose/filter pipeline, choosing stage order by rate direction.
func (rt *RateTransposer) process() {
	if !rt.useAntiAlias {
		rt.transposeInto(rt.input, rt.output)
		return
	}
	if rt.rate < 1.0 {
		// Upsampling: transpose first (more samples appear), then filter
		// to suppress the resulting imaging artifacts.
		rt.transposeInto(rt.input, rt.mid)
		rt.filterInto(rt.mid, rt.output)
	} else {
		// Downsampling: filter first to remove energy above the new
		// Nyquist, then decimate via the transposer.
		rt.filterInto(rt.input, rt.mid)
		rt.transposeInto(rt.mid, rt.output)
	}
}

func (rt *RateTransposer) transposeInto(src, dst *Float32Buffer) {
	avail := src.Available()
	if avail == 0 {
		return
	}
	in := src.GetSlice(avail)
	// Worst case output count: enough headroom for rate<1 upsampling.
	maxOut := int(float64(avail)/rt.rate) + 8
	out := make([]float32, maxOut*rt.channels)
	produced, consumed := rt.transposer.Transpose(out, in)
	if produced > 0 {
		_ = dst.PutSamples(out, produced)
	}
	if consumed > 0 {
		src.Drop(consumed)
	}
}

func (rt *RateTransposer) filterInto(src, dst *Float32Buffer) {
	length := rt.antiAlias.Length()
	avail := src.Available()
	if avail < length {
		return
	}
	in := src.GetSlice(avail)
	out := make([]float32, (avail-length+1)*rt.channels)
	produced := rt.antiAlias.Evaluate(out, in, avail, rt.channels)
	if produced > 0 {
		_ = dst.PutSamples(out, produced)
		src.Drop(produced)
	}
}
