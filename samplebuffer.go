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

import "fmt"

// Float32Buffer is the engine's FifoBuffer: a growable interleaved
// float32 ring counted in frames (one frame = `channels` consecutive
// samples), with begin/end style views and rewind-on-drain. It is built
// on top of ringBuffer[float32], generalized to float32 and to an
// arbitrary channel count.
type Float32Buffer struct {
	ring  *ringBuffer[float32]
	ch    int
	empty []float32 // reusable zero-fill slice for WriteEmpty
}

// NewFloat32Buffer creates a buffer for the given channel count with an
// initial capacity of `capacity` frames.
func NewFloat32Buffer(channels, capacity int) *Float32Buffer {
	if channels < 1 {
		channels = 1
	}
	return &Float32Buffer{
		ring:  newRingBuffer[float32](capacity * channels),
		ch:    channels,
		empty: make([]float32, 512*channels),
	}
}

// Channels returns the number of interleaved channels.
func (b *Float32Buffer) Channels() int { return b.ch }

// SetChannels changes the channel count, scaling Available() by the
// old/new ratio (integer frame division).
func (b *Float32Buffer) SetChannels(ch int) {
	if ch == b.ch || ch < 1 {
		return
	}
	b.ch = ch
}

// Available returns the number of frames ready to read.
func (b *Float32Buffer) Available() int { return b.ring.Len() / b.ch }

// IsEmpty reports whether there are no frames ready to read.
func (b *Float32Buffer) IsEmpty() bool { return b.ring.isEmpty() }

// Clear discards all buffered frames.
func (b *Float32Buffer) Clear() { b.ring.Reset() }

// Truncate keeps only the first n frames of the unread data.
func (b *Float32Buffer) Truncate(n int) { b.ring.Truncate(n * b.ch) }

// AdjustAmount clamps available frames to at most n, returning the new
// available count. Used by flush to trim trailing padding.
func (b *Float32Buffer) AdjustAmount(n int) int {
	if b.Available() > n {
		b.Truncate(n)
	}
	return b.Available()
}

// Begin returns a contiguous read view of all available frames, starting
// at the oldest sample. The view is invalidated by any Put/Receive call.
func (b *Float32Buffer) Begin() []float32 {
	return b.ring.GetSlice(b.ring.Len())
}

// BeginAt returns a read view starting at frame offset `at`, of length
// `n` frames, without removing them.
func (b *Float32Buffer) BeginAt(at, n int) []float32 {
	return b.ring.GetSliceAtN(at*b.ch, n*b.ch)
}

// End returns a mutable write view with capacity for up to `slack`
// frames past the currently available data. The reserved frames are not
// counted by Available() until a matching Put(n) commits them; a caller
// that writes fewer than `slack` frames commits only that many.
func (b *Float32Buffer) End(slack int) []float32 {
	return b.ring.RawSlice(slack * b.ch)
}

// Put commits n frames previously written into the slice returned by
// End, advancing Available() by n.
func (b *Float32Buffer) Put(n int) {
	b.ring.RawLenAdd(n * b.ch)
}

// PutSamples appends n frames from src (interleaved, n*channels floats).
func (b *Float32Buffer) PutSamples(src []float32, n int) error {
	need := n * b.ch
	if need > len(src) {
		return fmt.Errorf("%w: source has %d samples, need %d", ErrInvalidArgument, len(src), need)
	}
	b.ring.WriteSlice(src[:need])
	return nil
}

// WriteEmpty appends n blank (zero) frames, returning the frame index at
// which they start (the previous Available()).
func (b *Float32Buffer) WriteEmpty(n int) int {
	cur := b.Available()
	need := n * b.ch
	if len(b.empty) < need {
		b.empty = make([]float32, need+1024)
	}
	b.ring.WriteSlice(b.empty[:need])
	return cur
}

// Receive copies up to max frames into dst, removing them from the
// buffer, and returns the number of frames copied.
func (b *Float32Buffer) Receive(dst []float32, max int) int {
	s := b.ring.ReadSlice(max * b.ch)
	copy(dst, s)
	return len(s) / b.ch
}

// Drop removes up to max frames without copying them, returning the
// number actually removed.
func (b *Float32Buffer) Drop(max int) int {
	return b.ring.DropSlice(max*b.ch) / b.ch
}

// DropSlice is an alias for Drop.
func (b *Float32Buffer) DropSlice(n int) int { return b.Drop(n) }

// ReadSlice removes and returns n frames (fewer if not that many are
// available).
func (b *Float32Buffer) ReadSlice(n int) []float32 {
	return b.ring.ReadSlice(n * b.ch)
}

// ReadSliceAt splits the buffer at frame offset `at`: everything from
// `at` onward is returned as a view and the unread portion shrinks to
// [0,at). Used when a stage needs to keep a prefix and hand off the rest.
func (b *Float32Buffer) ReadSliceAt(at int) []float32 {
	return b.ring.ReadSliceAt(at * b.ch)
}

// GetSlice returns up to n frames without removing them.
func (b *Float32Buffer) GetSlice(n int) []float32 {
	return b.ring.GetSlice(n * b.ch)
}

// GetChannel returns the sample of channel ch in frame at.
func (b *Float32Buffer) GetChannel(at, ch int) (float32, error) {
	return b.ring.At(at*b.ch + ch)
}

// SetChannel overwrites the sample of channel ch in frame at.
func (b *Float32Buffer) SetChannel(at, ch int, v float32) {
	b.ring.WriteAt(at*b.ch+ch, v)
}

// Scale multiplies every sample from frame `at` onward by factor.
func (b *Float32Buffer) Scale(at int, factor float32) {
	s := b.ring.GetSliceAtN(at*b.ch, b.ring.Len()-at*b.ch)
	for i := range s {
		s[i] *= factor
	}
}

// Flush drains and returns every buffered frame.
func (b *Float32Buffer) Flush() []float32 {
	return b.ring.ReadSlice(b.ring.Len())
}

// RawSlice borrows an uninitialized tail view of n frames for a zero-copy
// producer to fill directly; pair with RawLenAdd.
func (b *Float32Buffer) RawSlice(n int) []float32 {
	return b.ring.RawSlice(n * b.ch)
}

// RawLenAdd commits n frames previously filled into a RawSlice view.
func (b *Float32Buffer) RawLenAdd(n int) bool {
	return b.ring.RawLenAdd(n * b.ch)
}

// MoveTo drains n frames from b and appends them to dst.
func (b *Float32Buffer) MoveTo(dst *Float32Buffer, n int) error {
	if b.ch != dst.ch {
		return fmt.Errorf("%w: %d vs %d", ErrChannels, b.ch, dst.ch)
	}
	b.ring.MoveTo(dst.ring, n*b.ch)
	return nil
}

// MoveAllTo drains every frame of b into dst, in order.
func (b *Float32Buffer) MoveAllTo(dst *Float32Buffer) error {
	if b.ch != dst.ch {
		return fmt.Errorf("%w: %d vs %d", ErrChannels, b.ch, dst.ch)
	}
	b.ring.MoveAllTo(dst.ring)
	return nil
}

// CopyTo copies (without removing) n frames of b into dst.
func (b *Float32Buffer) CopyTo(dst *Float32Buffer, n int) error {
	if b.ch != dst.ch {
		return fmt.Errorf("%w: %d vs %d", ErrChannels, b.ch, dst.ch)
	}
	b.ring.CopyTo(dst.ring, n*b.ch)
	return nil
}
