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

func sineSignal(n int, freqHz float64, sampleRate int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freqHz * float64(i) / float64(sampleRate)))
	}
	return out
}

func TestNewTimeStretchValidatesArguments(t *testing.T) {
	if _, err := NewTimeStretch(0, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for sample rate 0, got %v", err)
	}
	if _, err := NewTimeStretch(44100, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for channels 0, got %v", err)
	}
	if _, err := NewTimeStretch(44100, 17); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for channels 17, got %v", err)
	}
}

func TestTimeStretchSetTempoRejectsNonPositive(t *testing.T) {
	ts, err := NewTimeStretch(8000, 1)
	if err != nil {
		t.Fatalf("NewTimeStretch: %v", err)
	}
	if err := ts.SetTempo(0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for tempo 0, got %v", err)
	}
	if err := ts.SetTempo(-1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for tempo -1, got %v", err)
	}
}

func TestTimeStretchOverlapLenBoundsAndAlignment(t *testing.T) {
	ts, err := NewTimeStretch(8000, 1)
	if err != nil {
		t.Fatalf("NewTimeStretch: %v", err)
	}
	if ts.OverlapLen() < 16 {
		t.Errorf("expected overlap length >= 16, got %d", ts.OverlapLen())
	}
	if ts.OverlapLen()%8 != 0 {
		t.Errorf("expected overlap length divisible by 8, got %d", ts.OverlapLen())
	}
	if ts.Latency() != ts.OverlapLen() {
		t.Errorf("expected Latency() == OverlapLen(), got %d vs %d", ts.Latency(), ts.OverlapLen())
	}
}

func TestTimeStretchSampleReqCoversSeekWindowAndSeekLen(t *testing.T) {
	ts, err := NewTimeStretch(8000, 1)
	if err != nil {
		t.Fatalf("NewTimeStretch: %v", err)
	}
	if ts.SampleReq() < ts.SeekWindowLen()+ts.SeekLen() {
		t.Errorf("sampleReq %d should cover at least seekWindowLen+seekLen (%d+%d)",
			ts.SampleReq(), ts.SeekWindowLen(), ts.SeekLen())
	}
}

func TestTimeStretchIdentityTempoPreservesRoughDuration(t *testing.T) {
	ts, err := NewTimeStretch(8000, 1)
	if err != nil {
		t.Fatalf("NewTimeStretch: %v", err)
	}
	if err := ts.SetTempo(1.0); err != nil {
		t.Fatalf("SetTempo: %v", err)
	}

	src := sineSignal(ts.SampleReq()*4, 220, 8000)
	if err := ts.PutSamples(src, len(src)); err != nil {
		t.Fatalf("PutSamples: %v", err)
	}

	out := ts.Output().Available()
	ratio := float64(out) / float64(len(src))
	if ratio < 0.7 || ratio > 1.3 {
		t.Errorf("identity tempo should roughly preserve duration, got ratio %v (out=%d in=%d)", ratio, out, len(src))
	}
}

func TestTimeStretchFasterTempoShortensOutput(t *testing.T) {
	ts, err := NewTimeStretch(8000, 1)
	if err != nil {
		t.Fatalf("NewTimeStretch: %v", err)
	}
	if err := ts.SetTempo(2.0); err != nil {
		t.Fatalf("SetTempo: %v", err)
	}

	src := sineSignal(ts.SampleReq()*6, 220, 8000)
	if err := ts.PutSamples(src, len(src)); err != nil {
		t.Fatalf("PutSamples: %v", err)
	}

	out := ts.Output().Available()
	if out == 0 {
		t.Fatalf("expected some output")
	}
	if float64(out) > 0.75*float64(len(src)) {
		t.Errorf("tempo=2.0 should shrink output well below input length, got out=%d in=%d", out, len(src))
	}
}

func TestTimeStretchSlowerTempoLengthensOutput(t *testing.T) {
	ts, err := NewTimeStretch(8000, 1)
	if err != nil {
		t.Fatalf("NewTimeStretch: %v", err)
	}
	if err := ts.SetTempo(0.5); err != nil {
		t.Fatalf("SetTempo: %v", err)
	}

	src := sineSignal(ts.SampleReq()*3, 220, 8000)
	if err := ts.PutSamples(src, len(src)); err != nil {
		t.Fatalf("PutSamples: %v", err)
	}

	out := ts.Output().Available()
	if float64(out) < 1.25*float64(len(src)) {
		t.Errorf("tempo=0.5 should stretch output well beyond input length, got out=%d in=%d", out, len(src))
	}
}

func TestTimeStretchQuickSeekMatchesFullSeekRoughly(t *testing.T) {
	src := sineSignal(40000, 220, 8000)

	full, err := NewTimeStretch(8000, 1)
	if err != nil {
		t.Fatalf("NewTimeStretch: %v", err)
	}
	_ = full.SetTempo(1.3)
	_ = full.PutSamples(src, len(src))

	quick, err := NewTimeStretch(8000, 1)
	if err != nil {
		t.Fatalf("NewTimeStretch: %v", err)
	}
	_ = quick.SetTempo(1.3)
	quick.SetQuickSeek(true)
	_ = quick.PutSamples(src, len(src))

	fullOut := full.Output().Available()
	quickOut := quick.Output().Available()
	if fullOut == 0 || quickOut == 0 {
		t.Fatalf("expected output from both variants, got full=%d quick=%d", fullOut, quickOut)
	}
	ratio := float64(quickOut) / float64(fullOut)
	if ratio < 0.8 || ratio > 1.2 {
		t.Errorf("quick-seek output length should roughly match full search, got full=%d quick=%d", fullOut, quickOut)
	}
}

func TestTimeStretchClearResetsBeginningState(t *testing.T) {
	ts, err := NewTimeStretch(8000, 1)
	if err != nil {
		t.Fatalf("NewTimeStretch: %v", err)
	}
	src := sineSignal(ts.SampleReq()*2, 220, 8000)
	_ = ts.PutSamples(src, len(src))
	ts.Clear()
	if !ts.isBeginning {
		t.Errorf("expected Clear to reset isBeginning to true")
	}
	if ts.Output().Available() != 0 || ts.Input().Available() != 0 {
		t.Errorf("expected Clear to empty all buffers")
	}
}
