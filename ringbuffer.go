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
//
// NOTE: The growth/rewind strategy in this file is adapted from the
// "bytes" package of the Go standard library's Buffer type.
//
// The original copyright notice from the Go project for these parts is
// reproduced here:
//
// ========================================================================
// Copyright (c) 2009 The Go Authors. All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are
// met:
//
//    * Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//    * Redistributions in binary form must reproduce the above
// copyright notice, this list of conditions and the following disclaimer
// in the documentation and/or other materials provided with the
// distribution.
//    * Neither the name of Google Inc. nor the names of its
// contributors may be used to endorse or promote products derived from
// this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
// "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
// LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
// A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
// OWNER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
// LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
// DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
// THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
// (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
// ========================================================================

package touch

import "io"

// smallRingSize is the initial allocation for a ring with no hinted capacity.
const smallRingSize = 64

// growthQuantum models the spec's "round growth up to a 4 KiB boundary"
// invariant: requests are rounded up to a multiple of this many elements
// before allocating, so repeated small grows don't thrash.
const growthQuantum = 1024

// maxInt is the maximum positive int value.
const maxInt = int(^uint(0) >> 1)

// ringBuffer is a generic growable ring with a read cursor. Elements
// buf[off:len(buf)] are the unread (available) portion; elements before
// off have already been consumed and are reclaimed on the next grow/rewind.
type ringBuffer[T any] struct {
	buf []T
	off int
}

// newRingBuffer creates a ring with the given initial element capacity.
func newRingBuffer[T any](initialCap int) *ringBuffer[T] {
	return &ringBuffer[T]{buf: make([]T, 0, initialCap)}
}

// Len returns the number of unread elements.
func (b *ringBuffer[T]) Len() int {
	return len(b.buf) - b.off
}

// Cap returns the capacity of the underlying array.
func (b *ringBuffer[T]) Cap() int {
	return cap(b.buf)
}

// isEmpty reports whether there is no unread data.
func (b *ringBuffer[T]) isEmpty() bool {
	return len(b.buf) <= b.off
}

// Reset empties the buffer and resets the read cursor to zero.
func (b *ringBuffer[T]) Reset() {
	b.buf = b.buf[:0]
	b.off = 0
}

// Truncate discards all but the first n unread elements.
func (b *ringBuffer[T]) Truncate(n int) {
	if n == 0 {
		b.Reset()
		return
	}
	if n < 0 || n > b.Len() {
		panic("touch: ring truncation out of range")
	}
	b.buf = b.buf[:b.off+n]
}

// Write appends a single element, growing as needed.
func (b *ringBuffer[T]) Write(v T) {
	m, ok := b.tryGrowByReslice(1)
	if !ok {
		m = b.grow(1)
	}
	b.buf[m] = v
}

// WriteAt overwrites the element at unread-relative position n.
func (b *ringBuffer[T]) WriteAt(n int, v T) {
	if n < 0 || n >= b.Len() {
		panic("touch: ring write-at out of range")
	}
	b.buf[b.off+n] = v
}

// WriteSlice appends all elements of s, growing as needed.
func (b *ringBuffer[T]) WriteSlice(s []T) {
	if len(s) == 0 {
		return
	}
	m, ok := b.tryGrowByReslice(len(s))
	if !ok {
		m = b.grow(len(s))
	}
	copy(b.buf[m:], s)
}

// DropSlice discards up to n unread elements without copying them.
// Returns the number actually dropped.
func (b *ringBuffer[T]) DropSlice(n int) int {
	if b.isEmpty() {
		return 0
	}
	m := b.Len()
	if n > m {
		n = m
	}
	b.off += n
	if b.isEmpty() {
		b.off = 0
		b.buf = b.buf[:0]
	}
	return n
}

// ReadSlice removes and returns up to n unread elements.
func (b *ringBuffer[T]) ReadSlice(n int) []T {
	if b.isEmpty() {
		return nil
	}
	m := b.Len()
	if n > m {
		n = m
	}
	s := b.buf[b.off : b.off+n]
	b.off += n
	if b.isEmpty() {
		b.off = 0
		b.buf = b.buf[:0]
	}
	return s
}

// ReadSliceAt splits the buffer at unread-relative position `at`,
// returning everything from `at` onward and leaving only [0,at) behind
// as the unread portion. Used to carve a write-view off the tail.
func (b *ringBuffer[T]) ReadSliceAt(at int) []T {
	if at < 0 || at > b.Len() {
		panic("touch: ring read-slice-at out of range")
	}
	s := b.buf[b.off+at : len(b.buf) : len(b.buf)]
	b.buf = b.buf[:b.off+at]
	return s
}

// GetSlice returns up to n unread elements without removing them.
func (b *ringBuffer[T]) GetSlice(n int) []T {
	if b.isEmpty() {
		return nil
	}
	m := b.Len()
	if n > m {
		n = m
	}
	return b.buf[b.off : b.off+n]
}

// GetSliceAtN returns a slice of exactly n elements starting at
// unread-relative position `at`, without removing them.
func (b *ringBuffer[T]) GetSliceAtN(at, n int) []T {
	if at < 0 || n < 0 || at+n > b.Len() {
		panic("touch: ring get-slice-at-n out of range")
	}
	return b.buf[b.off+at : b.off+at+n]
}

// At peeks the element at unread-relative position n.
func (b *ringBuffer[T]) At(n int) (T, error) {
	var zero T
	if n < 0 || n >= b.Len() {
		return zero, io.EOF
	}
	return b.buf[b.off+n], nil
}

// MoveTo reads n elements from b and appends them to dst.
func (b *ringBuffer[T]) MoveTo(dst *ringBuffer[T], n int) {
	if b.isEmpty() {
		return
	}
	dst.WriteSlice(b.ReadSlice(n))
}

// MoveAllTo drains all unread elements of b into dst.
func (b *ringBuffer[T]) MoveAllTo(dst *ringBuffer[T]) {
	if b.isEmpty() {
		return
	}
	dst.WriteSlice(b.ReadSlice(b.Len()))
}

// CopyTo copies (without removing) n elements of b into dst.
func (b *ringBuffer[T]) CopyTo(dst *ringBuffer[T], n int) {
	if b.isEmpty() {
		return
	}
	dst.WriteSlice(b.GetSlice(n))
}

// RawSlice returns an uninitialized tail slice of n elements for a
// producer to fill directly, without yet counting them as available
// (pair with RawLenAdd). This is the zero-copy borrow path.
func (b *ringBuffer[T]) RawSlice(n int) []T {
	if b.isEmpty() {
		b.Reset()
	}
	_, ok := b.tryGrowByReslice(n)
	if !ok {
		b.grow(n)
	}
	l := len(b.buf)
	ret := b.buf[l-n : l : l]
	b.buf = b.buf[:l-n]
	return ret
}

// RawLenAdd advances the write cursor by n elements after an external
// write into a slice previously returned by RawSlice.
func (b *ringBuffer[T]) RawLenAdd(n int) bool {
	_, ok := b.tryGrowByReslice(n)
	return ok
}

// tryGrowByReslice grows by simple reslicing when there is already spare
// capacity past len(buf); the fast, no-copy path.
func (b *ringBuffer[T]) tryGrowByReslice(n int) (int, bool) {
	if l := len(b.buf); n <= cap(b.buf)-l {
		b.buf = b.buf[:l+n]
		return l, true
	}
	return 0, false
}

// roundGrowth rounds a requested element count up to the next multiple
// of growthQuantum, modeling the spec's 4 KiB allocation boundary.
func roundGrowth(n int) int {
	if n <= 0 {
		return growthQuantum
	}
	return (n + growthQuantum - 1) / growthQuantum * growthQuantum
}

// growSlice allocates a fresh backing array at least len(b)+n long.
func growSlice[T any](b []T, n int) []T {
	defer func() {
		if recover() != nil {
			panic(ErrTooLarge)
		}
	}()
	c := len(b) + n
	if c < 2*cap(b) {
		c = 2 * cap(b)
	}
	c = roundGrowth(c)
	b2 := append([]T(nil), make([]T, c)...)
	copy(b2, b)
	return b2[:len(b)]
}

// grow grows the ring to guarantee space for n more elements, sliding
// already-consumed space out of the way ("rewind") rather than
// reallocating whenever that is cheaper. Returns the index at which the
// n new elements start.
func (b *ringBuffer[T]) grow(n int) int {
	m := b.Len()
	if m == 0 && b.off != 0 {
		b.Reset()
	}
	if i, ok := b.tryGrowByReslice(n); ok {
		return i
	}
	if b.buf == nil && n <= smallRingSize {
		b.buf = make([]T, n, roundGrowth(smallRingSize))
		return 0
	}
	c := cap(b.buf)
	if n <= c/2-m {
		// Rewind: slide the unread tail down to the front instead of
		// reallocating. Cheaper than a new allocation when there is
		// enough reclaimed space behind off.
		copy(b.buf, b.buf[b.off:])
	} else if c > maxInt-c-n {
		panic(ErrTooLarge)
	} else {
		b.buf = growSlice(b.buf[b.off:], b.off+n)
	}
	b.off = 0
	b.buf = b.buf[:m+n]
	return m
}
