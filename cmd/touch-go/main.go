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

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/go-touch/touch-go"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bufLen = 4096

func main() {
	tempo := flag.Float64("tempo", 1.0, "Tempo multiplier. 1.5 means 50% faster without changing pitch.")
	pitch := flag.Float64("pitch", 1.0, "Pitch multiplier. 1.3 means 30% higher without changing duration.")
	rate := flag.Float64("rate", 1.0, "Playback rate multiplier. 2.0 means 2x faster and 2x pitch.")
	semitones := flag.Float64("pitch-semitones", 0, "Pitch shift in semitones; combines with -pitch.")
	quickSeek := flag.Bool("quick-seek", false, "Use the quick-seek WSOLA search variant.")
	bpm := flag.Bool("bpm", false, "Detect BPM instead of transforming audio.")
	in := flag.String("i", "", "Input WAV filename")
	out := flag.String("o", "out.wav", "Output WAV filename")

	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	f, err := os.Open(*in)
	if err != nil {
		logger.Error("open input", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	format := decoder.Format()

	effectivePitch := *pitch * math.Pow(2, *semitones/12)

	if *bpm {
		runBpm(logger, decoder, format)
		return
	}

	runTransform(logger, decoder, format, *tempo, effectivePitch, *rate, *quickSeek, *out)
}

func runTransform(logger *slog.Logger, decoder *wav.Decoder, format *audio.Format, tempo, pitch, rate float64, quickSeek bool, outPath string) {
	p := touch.NewSoundTouchProcessor()
	mustOK(logger, p.SetSampleRate(int(format.SampleRate)))
	mustOK(logger, p.SetChannels(format.NumChannels))
	mustOK(logger, p.SetTempo(tempo))
	mustOK(logger, p.SetPitch(pitch))
	mustOK(logger, p.SetRate(rate))
	p.SetUseQuickSeek(quickSeek)

	of, err := os.Create(outPath)
	if err != nil {
		logger.Error("create output", "error", err)
		os.Exit(1)
	}
	defer of.Close()

	enc := wav.NewEncoder(of, int(format.SampleRate), 16, format.NumChannels, 1)
	defer enc.Close()

	intBuf := &audio.IntBuffer{Data: make([]int, bufLen)}
	floatFrames := bufLen / format.NumChannels
	floatBuf := make([]float32, 0, bufLen)
	outChunk := make([]float32, bufLen)

	var elapsed time.Duration
	var framesIn, framesOut int

	for {
		samples, err := decoder.PCMBuffer(intBuf)
		if err != nil || samples == 0 {
			break
		}

		floatBuf = floatBuf[:0]
		for i := 0; i < samples; i++ {
			floatBuf = append(floatBuf, float32(intBuf.Data[i])/32768.0)
		}

		start := time.Now()
		mustOK(logger, p.PutSamples(floatBuf, samples/format.NumChannels))
		elapsed += time.Since(start)
		framesIn += samples / format.NumChannels

		framesOut += drain(logger, p, enc, format, outChunk, floatFrames)
	}

	start := time.Now()
	mustOK(logger, p.Flush())
	elapsed += time.Since(start)
	framesOut += drain(logger, p, enc, format, outChunk, floatFrames)

	logger.Info("processed", "frames_in", framesIn, "frames_out", framesOut, "elapsed", elapsed.String())
}

func drain(logger *slog.Logger, p *touch.SoundTouchProcessor, enc *wav.Encoder, format *audio.Format, chunk []float32, maxFrames int) int {
	total := 0
	for {
		n := p.ReceiveSamples(chunk, maxFrames)
		if n == 0 {
			break
		}
		intData := make([]int, n*format.NumChannels)
		for i := 0; i < n*format.NumChannels; i++ {
			v := int(chunk[i] * 32768.0)
			if v > 32767 {
				v = 32767
			} else if v < -32768 {
				v = -32768
			}
			intData[i] = v
		}
		if err := enc.Write(&audio.IntBuffer{
			Format:         format,
			SourceBitDepth: 16,
			Data:           intData,
		}); err != nil {
			logger.Error("write output", "error", err)
			os.Exit(1)
		}
		total += n
	}
	return total
}

func runBpm(logger *slog.Logger, decoder *wav.Decoder, format *audio.Format) {
	bd, err := touch.NewBpmDetect(format.NumChannels, int(format.SampleRate))
	if err != nil {
		logger.Error("create bpm detector", "error", err)
		os.Exit(1)
	}

	intBuf := &audio.IntBuffer{Data: make([]int, bufLen)}
	floatBuf := make([]float32, 0, bufLen)

	for {
		samples, err := decoder.PCMBuffer(intBuf)
		if err != nil || samples == 0 {
			break
		}
		floatBuf = floatBuf[:0]
		for i := 0; i < samples; i++ {
			floatBuf = append(floatBuf, float32(intBuf.Data[i])/32768.0)
		}
		mustOK(logger, bd.PutSamples(floatBuf, samples/format.NumChannels))
	}

	bpm := bd.BPM()
	beats := bd.Beats()
	logger.Info("bpm detected", "bpm", bpm, "beats", len(beats))
	fmt.Printf("BPM: %.1f\n", bpm)
	for _, b := range beats {
		fmt.Printf("beat at %.3fs strength=%.3f\n", b.PositionSeconds, b.Strength)
	}
}

func mustOK(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("processing error", "error", err)
		os.Exit(1)
	}
}
