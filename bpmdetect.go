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

// bpmChunkSize is the number of decimated, enveloped samples gathered
// before one windowed-autocorrelation accumulation pass runs.
const bpmChunkSize = 1024

// bpmCutCoeffDrift and bpmCutCoeffWarmup implement the auto-tuning of
// the RMS-gate threshold: ~8% of samples should exceed the gate,
// adjusted by a small constant drift per sample after an initial
// warm-up.
const (
	bpmCutCoeffDrift  = 0.001
	bpmCutCoeffWarmup = 500
	bpmCutCoeffTarget = 0.08
	bpmEnvelopeDecay  = 0.7
)

// Beat is one detected onset in the analyzed signal.
type Beat struct {
	PositionSeconds float64
	Strength        float64
}

// BpmDetect estimates tempo in beats-per-minute from decimation,
// envelope-following, and windowed autocorrelation.
type BpmDetect struct {
	channels   int
	sampleRate int

	decimateFactor int
	decSampleRate  float64

	decimAccum float64
	decimCount int

	rmsWindow []float64 // squared decimated samples, circular, 2s long
	rmsPos    int
	rmsSum    float64
	rmsFilled int

	cutCoeff    float64
	warmupCount int
	envelope    float64
	prevGated   float64

	chunk   []float32
	history []float32

	minLag, maxLag int
	xcorr          []float64

	elapsedDecimated int64
	beats            []Beat

	iir *Iir2Filter
}

// NewBpmDetect creates a BPM analyzer for the given channel count and
// sample rate.
func NewBpmDetect(channels, sampleRate int) (*BpmDetect, error) {
	if channels < 1 || channels > 16 {
		return nil, fmt.Errorf("%w: channel count %d must lie in [1,16]", ErrInvalidArgument, channels)
	}
	if sampleRate <= 0 || sampleRate > 192000 {
		return nil, fmt.Errorf("%w: sample rate %d must lie in (0,192000]", ErrInvalidArgument, sampleRate)
	}

	decimateFactor := sampleRate / 1000
	if decimateFactor < 1 {
		decimateFactor = 1
	}
	decSampleRate := float64(sampleRate) / float64(decimateFactor)

	minLag := int(60 * float64(sampleRate) / (float64(decimateFactor) * 200))
	if minLag < 1 {
		minLag = 1
	}
	maxLag := int(math.Ceil(60 * float64(sampleRate) / (float64(decimateFactor) * 29)))
	if maxLag <= minLag {
		maxLag = minLag + 1
	}

	rmsWindowLen := int(2 * decSampleRate)
	if rmsWindowLen < 1 {
		rmsWindowLen = 1
	}

	iir, err := NewIir2BandPass(decSampleRate/8, 1.0, decSampleRate)
	if err != nil {
		return nil, err
	}

	return &BpmDetect{
		channels:       channels,
		sampleRate:     sampleRate,
		decimateFactor: decimateFactor,
		decSampleRate:  decSampleRate,
		rmsWindow:      make([]float64, rmsWindowLen),
		cutCoeff:       1.5,
		minLag:         minLag,
		maxLag:         maxLag,
		xcorr:          make([]float64, maxLag+1),
		history:        make([]float32, 0, maxLag+bpmChunkSize),
		iir:            iir,
	}, nil
}

// PutSamples feeds nFrames interleaved frames (channels wide) into the
// analyzer.
func (bd *BpmDetect) PutSamples(buf []float32, nFrames int) error {
	need := nFrames * bd.channels
	if need > len(buf) {
		return fmt.Errorf("%w: source has %d samples, need %d", ErrInvalidArgument, len(buf), need)
	}
	for i := 0; i < nFrames; i++ {
		frame := buf[i*bd.channels : (i+1)*bd.channels]
		var sum float32
		for _, s := range frame {
			sum += s
		}
		bd.feedDecimation(sum / float32(bd.channels))
	}
	return nil
}

// feedDecimation block-averages incoming mono samples by decimateFactor.
func (bd *BpmDetect) feedDecimation(mono float32) {
	bd.decimAccum += float64(mono)
	bd.decimCount++
	if bd.decimCount < bd.decimateFactor {
		return
	}
	avg := bd.decimAccum / float64(bd.decimCount)
	bd.decimAccum = 0
	bd.decimCount = 0
	bd.processDecimatedSample(avg)
}

// processDecimatedSample applies the RMS gate, auto-tunes cut_coeff,
// runs the envelope follower, detects beat onsets, and feeds the result
// into the chunk buffer for autocorrelation.
func (bd *BpmDetect) processDecimatedSample(s float64) {
	sq := s * s
	bd.rmsSum += sq - bd.rmsWindow[bd.rmsPos]
	bd.rmsWindow[bd.rmsPos] = sq
	bd.rmsPos = (bd.rmsPos + 1) % len(bd.rmsWindow)
	if bd.rmsFilled < len(bd.rmsWindow) {
		bd.rmsFilled++
	}
	rms := math.Sqrt(bd.rmsSum / float64(bd.rmsFilled))

	gated := math.Abs(s) - bd.cutCoeff*rms
	if gated < 0 {
		gated = 0
	}

	bd.warmupCount++
	if bd.warmupCount > bpmCutCoeffWarmup {
		indicator := 0.0
		if gated > 0 {
			indicator = 1.0
		}
		bd.cutCoeff += bpmCutCoeffDrift * (indicator - bpmCutCoeffTarget)
		if bd.cutCoeff < 0 {
			bd.cutCoeff = 0
		}
	}

	if gated > bd.envelope {
		bd.envelope = gated
	} else {
		bd.envelope = bpmEnvelopeDecay*bd.envelope + (1-bpmEnvelopeDecay)*gated
	}

	if gated > 0 && bd.prevGated == 0 {
		bd.beats = append(bd.beats, Beat{
			PositionSeconds: float64(bd.elapsedDecimated) / bd.decSampleRate,
			Strength:        gated,
		})
	}
	bd.prevGated = gated
	bd.elapsedDecimated++

	filtered := bd.iir.Process(float32(bd.envelope))
	bd.appendToChunk(filtered)
}

// appendToChunk buffers one enveloped sample for autocorrelation,
// keeping enough trailing history for the largest lag under
// consideration, and runs a chunk-sized accumulation pass when full.
func (bd *BpmDetect) appendToChunk(v float32) {
	bd.chunk = append(bd.chunk, v)
	bd.history = append(bd.history, v)
	if keep := bd.maxLag + bpmChunkSize; len(bd.history) > keep {
		bd.history = bd.history[len(bd.history)-keep:]
	}
	if len(bd.chunk) >= bpmChunkSize {
		bd.processChunk()
		bd.chunk = bd.chunk[:0]
	}
}

// processChunk decays the running autocorrelation and accumulates a new
// windowed contribution from the latest chunk.
func (bd *BpmDetect) processChunk() {
	decay := math.Pow(0.5, 1/(30*bd.decSampleRate/bpmChunkSize))
	for lag := range bd.xcorr {
		bd.xcorr[lag] *= decay
	}

	hist := bd.history
	n := len(hist)
	chunkStart := n - bpmChunkSize
	for lag := bd.minLag; lag <= bd.maxLag; lag++ {
		var sum float64
		for i := 0; i < bpmChunkSize; i++ {
			idx := chunkStart + i
			refIdx := idx - lag
			if refIdx < 0 {
				continue
			}
			w := hammingWindow(i, bpmChunkSize)
			sum += float64(hist[idx]) * float64(hist[refIdx]) * w
		}
		bd.xcorr[lag] += sum
	}
}

// hammingWindow evaluates a Hamming window of length n at index i.
func hammingWindow(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	return 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
}

// BPM returns the detected tempo, or 0 if no credible peak exists within
// [45,190].
func (bd *BpmDetect) BPM() float64 {
	span := bd.maxLag - bd.minLag + 1
	if span <= 0 {
		return 0
	}
	vec := make([]float64, span)
	copy(vec, bd.xcorr[bd.minLag:bd.maxLag+1])

	detrend(vec)
	smoothed := movingAverage(vec, 15)

	pf := NewPeakFinder()
	peakIdx := pf.Detect(smoothed, 0, len(smoothed))
	if peakIdx <= 0 {
		return 0
	}
	lag := float64(bd.minLag) + peakIdx
	if lag <= 0 {
		return 0
	}
	bpm := 60 * float64(bd.sampleRate) / (float64(bd.decimateFactor) * lag)
	if bpm < 45 || bpm > 190 {
		return 0
	}
	return bpm
}

// Beats returns the list of detected beat onsets accumulated so far.
func (bd *BpmDetect) Beats() []Beat { return bd.beats }

// detrend subtracts the best-fit linear regression line from v in place.
func detrend(v []float64) {
	n := len(v)
	if n < 2 {
		return
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range v {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return
	}
	slope := (nf*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / nf
	for i := range v {
		v[i] -= slope*float64(i) + intercept
	}
}

// movingAverage returns a window-point centered moving average of v.
func movingAverage(v []float64, window int) []float64 {
	n := len(v)
	out := make([]float64, n)
	half := window / 2
	for i := 0; i < n; i++ {
		lo := i - half
		hi := i + half
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += v[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}
