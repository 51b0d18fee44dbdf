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
	"reflect"
	"testing"
)

func TestRingBufferWriteReadSlice(t *testing.T) {
	b := newRingBuffer[int](0)
	values := []int{1, 2, 3, 4, 5}
	b.WriteSlice(values)

	if got := b.Len(); got != len(values) {
		t.Fatalf("Len: expected %d, got %d", len(values), got)
	}

	got := b.ReadSlice(len(values))
	if !reflect.DeepEqual(got, values) {
		t.Errorf("ReadSlice: expected %v, got %v", values, got)
	}
	if !b.isEmpty() {
		t.Errorf("expected buffer to be empty after full read")
	}
}

func TestRingBufferDropSlice(t *testing.T) {
	b := newRingBuffer[int](0)
	b.WriteSlice([]int{1, 2, 3, 4, 5})

	dropped := b.DropSlice(2)
	if dropped != 2 {
		t.Fatalf("DropSlice: expected 2, got %d", dropped)
	}
	rest := b.ReadSlice(10)
	if !reflect.DeepEqual(rest, []int{3, 4, 5}) {
		t.Errorf("expected remaining [3 4 5], got %v", rest)
	}
}

func TestRingBufferGrowPastCapacityReallocates(t *testing.T) {
	b := newRingBuffer[int](2)
	for i := 0; i < 10; i++ {
		b.Write(i)
	}
	if b.Len() != 10 {
		t.Fatalf("expected 10 elements after growth, got %d", b.Len())
	}
	for i := 0; i < 10; i++ {
		v, err := b.At(i)
		if err != nil || v != i {
			t.Errorf("At(%d): expected %d, got %d (err %v)", i, i, v, err)
		}
	}
}

func TestRingBufferRewindReclaimsConsumedSpace(t *testing.T) {
	b := newRingBuffer[int](0)
	b.WriteSlice([]int{1, 2, 3, 4})
	b.DropSlice(3) // consumed space should be reclaimed rather than growing forever
	before := b.Cap()
	for i := 0; i < 100; i++ {
		b.Write(i)
		b.DropSlice(1)
	}
	if b.Cap() > before*4 {
		t.Errorf("ring grew capacity unexpectedly instead of rewinding: before=%d after=%d", before, b.Cap())
	}
}

func TestRingBufferTruncate(t *testing.T) {
	b := newRingBuffer[int](0)
	b.WriteSlice([]int{1, 2, 3, 4, 5})
	b.Truncate(2)
	if got := b.ReadSlice(10); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("Truncate: expected [1 2], got %v", got)
	}
}

func TestRingBufferRawSliceRawLenAdd(t *testing.T) {
	b := newRingBuffer[float32](0)
	b.WriteSlice([]float32{1, 2})

	raw := b.RawSlice(3)
	raw[0] = 10
	raw[1] = 20
	raw[2] = 30
	if b.Len() != 2 {
		t.Fatalf("RawSlice must not advance Len before RawLenAdd, got %d", b.Len())
	}
	if ok := b.RawLenAdd(2); !ok {
		t.Fatalf("RawLenAdd(2) should succeed, the slice was reserved for 3")
	}
	got := b.ReadSlice(10)
	want := []float32{1, 2, 10, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRingBufferMoveAllTo(t *testing.T) {
	src := newRingBuffer[int](0)
	dst := newRingBuffer[int](0)
	src.WriteSlice([]int{1, 2, 3})
	dst.WriteSlice([]int{0})

	src.MoveAllTo(dst)

	if !src.isEmpty() {
		t.Errorf("expected src to be empty after MoveAllTo")
	}
	got := dst.ReadSlice(10)
	want := []int{0, 1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
