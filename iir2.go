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

// Iir2Filter is a direct-form-I biquad (two-pole/two-zero IIR),
// used by BpmDetect to sharpen its envelope into a cleaner beat-strength
// signal before peak-picking.
type Iir2Filter struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

// NewIir2BandPass builds a band-pass biquad centered at centerHz with
// quality factor q, using the RBJ cookbook formulas, for a filter
// running at sampleRate.
func NewIir2BandPass(centerHz, q, sampleRate float64) (*Iir2Filter, error) {
	f := &Iir2Filter{}
	if err := f.SetBandpass(centerHz, q, sampleRate); err != nil {
		return nil, err
	}
	return f, nil
}

// SetBandpass rebuilds the filter's coefficients for a new center
// frequency, Q, and sample rate, resetting the filter state.
func (f *Iir2Filter) SetBandpass(centerHz, q, sampleRate float64) error {
	if centerHz <= 0 || centerHz >= sampleRate/2 {
		return fmt.Errorf("%w: center frequency %v must lie in (0, sampleRate/2)", ErrInvalidArgument, centerHz)
	}
	if q <= 0 {
		return fmt.Errorf("%w: Q %v must be > 0", ErrInvalidArgument, q)
	}

	w0 := 2 * math.Pi * centerHz / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosW0 := math.Cos(w0)

	// Constant 0 dB peak gain band-pass (RBJ cookbook).
	b0 := alpha
	b1 := 0.0
	b2 := -alpha
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha

	f.b0, f.b1, f.b2 = b0/a0, b1/a0, b2/a0
	f.a1, f.a2 = a1/a0, a2/a0
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
	return nil
}

// Reset clears the filter's internal state without changing its coefficients.
func (f *Iir2Filter) Reset() { f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0 }

// Process advances the filter by one sample and returns the filtered output.
func (f *Iir2Filter) Process(x float32) float32 {
	xf := float64(x)
	y := f.b0*xf + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, xf
	f.y2, f.y1 = f.y1, y
	return float32(y)
}

// ProcessBuffer filters every sample of buf in place.
func (f *Iir2Filter) ProcessBuffer(buf []float32) {
	for i, v := range buf {
		buf[i] = f.Process(v)
	}
}
