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
	"errors"
	"math"
	"testing"
)

func TestNewTransposerRejectsShannonMultiChannel(t *testing.T) {
	if _, err := NewTransposer(AlgoShannon, 2); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
	if _, err := NewTransposer(AlgoShannon, 1); err != nil {
		t.Fatalf("mono Shannon transposer should be allowed: %v", err)
	}
}

func TestTransposerSetChannelsRejectsShannonMultiChannel(t *testing.T) {
	tr, err := NewTransposer(AlgoShannon, 1)
	if err != nil {
		t.Fatalf("NewTransposer: %v", err)
	}
	if err := tr.SetChannels(2); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported on SetChannels(2), got %v", err)
	}
}

func TestTransposerIdentityRatePassesSamplesThrough(t *testing.T) {
	tr, err := NewTransposer(AlgoLinear, 1)
	if err != nil {
		t.Fatalf("NewTransposer: %v", err)
	}
	tr.SetRate(1.0)

	src := []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	dst := make([]float32, len(src))
	produced, consumed := tr.Transpose(dst, src)

	if produced == 0 {
		t.Fatalf("expected some output frames")
	}
	for i := 0; i < produced; i++ {
		if math.Abs(float64(dst[i]-src[i])) > 1e-5 {
			t.Errorf("frame %d: expected %v, got %v", i, src[i], dst[i])
		}
	}
	if consumed > len(src) {
		t.Errorf("consumed %d exceeds source length %d", consumed, len(src))
	}
}

func TestTransposerUpsampleProducesMoreFramesThanConsumed(t *testing.T) {
	tr, err := NewTransposer(AlgoCubic, 1)
	if err != nil {
		t.Fatalf("NewTransposer: %v", err)
	}
	tr.SetRate(0.5) // half rate -> 2x output frames per input frame

	src := make([]float32, 64)
	for i := range src {
		src[i] = float32(math.Sin(float64(i) * 0.1))
	}
	dst := make([]float32, 256)
	produced, consumed := tr.Transpose(dst, src)

	if consumed == 0 || produced <= consumed {
		t.Errorf("expected upsampling to produce more frames than consumed, got produced=%d consumed=%d", produced, consumed)
	}
}

func TestTransposerDownsampleConsumesMoreThanProduced(t *testing.T) {
	tr, err := NewTransposer(AlgoLinear, 1)
	if err != nil {
		t.Fatalf("NewTransposer: %v", err)
	}
	tr.SetRate(2.0) // downsample

	src := make([]float32, 64)
	for i := range src {
		src[i] = float32(i)
	}
	dst := make([]float32, 64)
	produced, consumed := tr.Transpose(dst, src)

	if produced == 0 || consumed <= produced {
		t.Errorf("expected downsampling to consume more frames than produced, got produced=%d consumed=%d", produced, consumed)
	}
}

func TestTransposerResetClearsFraction(t *testing.T) {
	tr, err := NewTransposer(AlgoLinear, 1)
	if err != nil {
		t.Fatalf("NewTransposer: %v", err)
	}
	tr.SetRate(0.7)
	src := make([]float32, 16)
	dst := make([]float32, 16)
	tr.Transpose(dst, src)
	tr.Reset()
	if tr.fract != 0 {
		t.Errorf("expected Reset to zero the fractional position, got %v", tr.fract)
	}
}

func TestTransposerLatencyByAlgorithm(t *testing.T) {
	cases := []struct {
		algo TransposerAlgorithm
		want int
	}{
		{AlgoLinear, 0},
		{AlgoCubic, 1},
		{AlgoShannon, 3},
	}
	for _, c := range cases {
		tr, err := NewTransposer(c.algo, 1)
		if err != nil {
			t.Fatalf("NewTransposer(%v): %v", c.algo, err)
		}
		if got := tr.Latency(); got != c.want {
			t.Errorf("algo %v: expected latency %d, got %d", c.algo, c.want, got)
		}
	}
}
