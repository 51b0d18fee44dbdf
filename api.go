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

// Process runs a one-shot tempo/pitch/rate transform over samples (an
// interleaved float32 buffer, channels wide) and returns the transformed
// output. It is a convenience wrapper around SoundTouchProcessor for
// callers that don't need streaming control.
func Process(sampleRate, channels int, tempo, pitch, rate float64, samples []float32) ([]float32, error) {
	p := NewSoundTouchProcessor()
	if err := p.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	if err := p.SetChannels(channels); err != nil {
		return nil, err
	}
	if err := p.SetTempo(tempo); err != nil {
		return nil, err
	}
	if err := p.SetPitch(pitch); err != nil {
		return nil, err
	}
	if err := p.SetRate(rate); err != nil {
		return nil, err
	}

	nFrames := len(samples) / channels
	if err := p.PutSamples(samples, nFrames); err != nil {
		return nil, err
	}
	if err := p.Flush(); err != nil {
		return nil, err
	}

	out := make([]float32, 0, p.AvailableSamples()*channels)
	chunk := make([]float32, 4096*channels)
	for {
		n := p.ReceiveSamples(chunk, 4096)
		if n == 0 {
			break
		}
		out = append(out, chunk[:n*channels]...)
	}
	return out, nil
}
