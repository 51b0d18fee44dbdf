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

import "errors"

// Sentinel errors for the error kinds of the engine contract. Wrap these
// with fmt.Errorf("%w: ...", ErrX, detail) so callers can still match with
// errors.Is.
var (
	// ErrInvalidArgument is returned for an out-of-range numeric parameter:
	// sample rate, channel count, FIR length not divisible by 8, empty
	// coefficient vector, filter length out of bounds.
	ErrInvalidArgument = errors.New("touch: invalid argument")

	// ErrInvalidState is returned when put_samples is called before sample
	// rate/channels are set, or an output pipe is assigned twice.
	ErrInvalidState = errors.New("touch: invalid state")

	// ErrDisposed is returned for operations on a processor after Dispose.
	ErrDisposed = errors.New("touch: object disposed")

	// ErrNotSupported is returned for an unimplemented transposer/channel
	// combination (sinc multi-channel is unimplemented and fails fast).
	ErrNotSupported = errors.New("touch: not supported")

	// ErrChannels is returned when two buffers with mismatched channel
	// counts are combined.
	ErrChannels = errors.New("touch: incompatible number of channels")

	// ErrTooLarge is returned (via panic) when memory cannot be
	// allocated to grow a buffer.
	ErrTooLarge = errors.New("touch: buffer too large")
)
