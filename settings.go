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

// SettingId enumerates the processor's recognized tunables, a closed set
// exposed as individual Get/Set method pairs rather than a generic
// string-keyed config map.
type SettingId int

const (
	// SettingUseAntiAliasFilter toggles RateTransposer's anti-alias stage.
	SettingUseAntiAliasFilter SettingId = iota
	// SettingAntiAliasFilterLength is the FIR tap count, in [8,128], a multiple of 8.
	SettingAntiAliasFilterLength
	// SettingUseQuickSeek toggles TimeStretch's quick-seek search variant.
	SettingUseQuickSeek
	// SettingSequenceDurationMs is TimeStretch's sequence_ms (0 = auto).
	SettingSequenceDurationMs
	// SettingSeekWindowDurationMs is TimeStretch's seek_window_ms (0 = auto).
	SettingSeekWindowDurationMs
	// SettingOverlapDurationMs is TimeStretch's overlap_ms (0 = auto).
	SettingOverlapDurationMs
	// SettingNominalInputSequence is read-only.
	SettingNominalInputSequence
	// SettingNominalOutputSequence is read-only.
	SettingNominalOutputSequence
	// SettingInitialLatency is read-only.
	SettingInitialLatency
)

// Defaults holds the engine's factory default parameter values.
var Defaults = struct {
	Tempo               float64
	Rate                float64
	Pitch               float64
	SampleRate          int
	UseAntiAliasFilter  bool
	AntiAliasTaps       int
	UseQuickSeek        bool
	SequenceDurationMs  float64
	SeekWindowDurationMs float64
	OverlapDurationMs   float64
	Algorithm           TransposerAlgorithm
}{
	Tempo:                1.0,
	Rate:                 1.0,
	Pitch:                1.0,
	SampleRate:           44100,
	UseAntiAliasFilter:   true,
	AntiAliasTaps:        DefaultAntiAliasTaps,
	UseQuickSeek:         false,
	SequenceDurationMs:   0,
	SeekWindowDurationMs: 0,
	OverlapDurationMs:    0,
	Algorithm:            AlgoCubic,
}
