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

// FifoPipe is the polymorphic contract shared by every staged sample
// producer/consumer in the engine. Float32Buffer satisfies
// it directly; RateTransposer and TimeStretch satisfy it by delegating
// their read side to an internal output Float32Buffer.
type FifoPipe interface {
	Available() int
	IsEmpty() bool
	Begin() []float32
	PutSamples(src []float32, n int) error
	Receive(dst []float32, max int) int
	Drop(max int) int
	Clear()
	AdjustAmount(n int) int
	MoveSamplesFrom(src FifoPipe) error
}

// MoveSamplesFrom drains src into b, preserving order. It is the
// FifoPipe-level counterpart of Float32Buffer.MoveAllTo, usable across
// any two pipes (buffers or processors) without either side knowing the
// other's concrete type.
func (b *Float32Buffer) MoveSamplesFrom(src FifoPipe) error {
	for src.Available() > 0 {
		n := src.Available()
		buf := make([]float32, n*b.ch)
		got := src.Receive(buf, n)
		if got == 0 {
			break
		}
		if err := b.PutSamples(buf, got); err != nil {
			return err
		}
	}
	return nil
}

// FifoProcessor is a FifoPipe that delegates all read-side operations
// (Available/IsEmpty/Begin/Receive/Drop/Clear/AdjustAmount) to a
// configurable downstream output pipe. RateTransposer
// and TimeStretch embed one to expose their internal output buffer as
// their own public read side.
type FifoProcessor struct {
	output *Float32Buffer
}

// SetOutput assigns the downstream pipe. Assigning it a second time is
// an InvalidState error.
func (p *FifoProcessor) SetOutput(output *Float32Buffer) error {
	if p.output != nil {
		return ErrInvalidState
	}
	p.output = output
	return nil
}

func (p *FifoProcessor) Available() int       { return p.output.Available() }
func (p *FifoProcessor) IsEmpty() bool         { return p.output.IsEmpty() }
func (p *FifoProcessor) Begin() []float32      { return p.output.Begin() }
func (p *FifoProcessor) Drop(max int) int      { return p.output.Drop(max) }
func (p *FifoProcessor) Clear()                { p.output.Clear() }
func (p *FifoProcessor) AdjustAmount(n int) int { return p.output.AdjustAmount(n) }
func (p *FifoProcessor) Receive(dst []float32, max int) int {
	return p.output.Receive(dst, max)
}

// MoveSamplesFrom drains src into the processor's output buffer,
// completing the FifoPipe contract for RateTransposer and TimeStretch.
func (p *FifoProcessor) MoveSamplesFrom(src FifoPipe) error {
	return p.output.MoveSamplesFrom(src)
}
