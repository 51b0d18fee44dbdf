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
	"math"
	"testing"
)

// gaussianBump builds a vector with a single symmetric bump centered at c.
func gaussianBump(n, c int, width float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		d := float64(i-c) / width
		x[i] = math.Exp(-d * d)
	}
	return x
}

func TestPeakFinderLocatesSymmetricBump(t *testing.T) {
	pf := NewPeakFinder()
	x := gaussianBump(100, 50, 5)
	got := pf.Detect(x, 0, len(x))
	if math.Abs(got-50) > 1.5 {
		t.Errorf("expected peak near index 50, got %v", got)
	}
}

func TestPeakFinderEmptyRangeReturnsZero(t *testing.T) {
	pf := NewPeakFinder()
	x := gaussianBump(10, 5, 2)
	if got := pf.Detect(x, 5, 5); got != 0 {
		t.Errorf("expected 0 for an empty [min,max) range, got %v", got)
	}
	if got := pf.Detect(x, 8, 3); got != 0 {
		t.Errorf("expected 0 for an inverted range, got %v", got)
	}
}

func TestPeakFinderFlatVectorReturnsZero(t *testing.T) {
	pf := NewPeakFinder()
	x := make([]float64, 20)
	for i := range x {
		x[i] = 1.0
	}
	got := pf.Detect(x, 0, len(x))
	if got != 0 {
		t.Errorf("expected 0 for a flat vector (its first maximum is the edge index 0), got %v", got)
	}
}

func TestPeakFinderEdgePeakReturnsZero(t *testing.T) {
	pf := NewPeakFinder()
	x := gaussianBump(10, 0, 3) // peak at the very first index
	got := pf.peakCenter(x, 0)
	if got != 0 {
		t.Errorf("expected peakCenter to reject an edge peak, got %v", got)
	}
}

func TestPeakFinderHarmonicCorrectionPrefersSubharmonic(t *testing.T) {
	pf := NewPeakFinder()
	n := 200
	x := make([]float64, n)
	main := gaussianBump(n, 100, 4)
	sub := gaussianBump(n, 50, 4)
	for i := range x {
		x[i] = main[i] + 0.8*sub[i]
	}
	got := pf.Detect(x, 0, n)
	// The strong, correctly-positioned subharmonic at half the main peak's
	// index should pull the reported center down toward it.
	if got > 75 {
		t.Errorf("expected harmonic correction to favor the subharmonic near 50, got %v", got)
	}
}
