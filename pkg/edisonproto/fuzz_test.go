// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Edison contributors

package edisonproto

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomFrame builds a valid frame none of whose bytes after the first equal
// the start byte, so no resync point hides inside it
func randomFrame(rng *rand.Rand) Frame {
	for {
		f, err := Encode(int(DefaultStartByte), rng.Intn(256), rng.Intn(256), rng.Intn(256))
		if err != nil {
			panic(err)
		}
		clean := true
		for _, b := range f[1:] {
			if b == DefaultStartByte {
				clean = false
				break
			}
		}
		if clean {
			return f
		}
	}
}

// randomGarbage returns bytes that never contain the start byte
func randomGarbage(rng *rand.Rand, n int) []byte {
	data := make([]byte, n)
	for i := range data {
		b := byte(rng.Intn(256))
		if b == DefaultStartByte {
			b++
		}
		data[i] = b
	}
	return data
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

// TestFuzzDecoder_RandomBytes feeds random bytes to the decoder and verifies
// every emitted packet is valid and the buffer never outgrows one frame
func TestFuzzDecoder_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		d := NewDecoder(DefaultStartByte)

		length := rng.Intn(512) + 1
		data := make([]byte, length)
		rng.Read(data)

		for _, b := range data {
			packet, _ := d.DecodeByte(b)
			if packet != nil && !packet.Frame().Valid() {
				t.Fatalf("Round %d: decoder emitted invalid frame % X", i, packet.Frame().Bytes())
			}
			if len(d.buf) >= FrameSize {
				t.Fatalf("Round %d: buffer holds %d bytes", i, len(d.buf))
			}
		}
	}
}

// TestFuzzDecoder_FramesInGarbage hides valid frames between runs of garbage
// and expects each one back in order
func TestFuzzDecoder_FramesInGarbage(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		d := NewDecoder(DefaultStartByte)

		count := rng.Intn(8) + 1
		var stream []byte
		want := make([]Frame, count)
		for j := range want {
			stream = append(stream, randomGarbage(rng, rng.Intn(16))...)
			want[j] = randomFrame(rng)
			stream = append(stream, want[j][:]...)
		}

		packets, failures := d.Decode(stream)
		if failures != 0 {
			t.Errorf("Round %d: %d unexpected checksum failures", i, failures)
		}
		if len(packets) != count {
			t.Errorf("Round %d: expected %d frames, got %d", i, count, len(packets))
			continue
		}
		for j, p := range packets {
			if p.Frame() != want[j] {
				t.Errorf("Round %d: frame %d mismatch: expected % X, got % X", i, j, want[j][:], p.Frame().Bytes())
			}
		}
	}
}

// TestFuzzDecoder_CorruptedFrames corrupts one byte of a frame and checks the
// decoder rejects it and still decodes the frame that follows
func TestFuzzDecoder_CorruptedFrames(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		d := NewDecoder(DefaultStartByte)

		bad := randomFrame(rng)
		idx := rng.Intn(FrameSize-1) + 1
		replacement := byte(rng.Intn(256))
		for replacement == bad[idx] || replacement == DefaultStartByte {
			replacement++
		}
		bad[idx] = replacement

		good := randomFrame(rng)
		stream := append(bad[:], good[:]...)

		packets, failures := d.Decode(stream)
		if failures != 1 {
			t.Errorf("Round %d: expected 1 checksum failure, got %d", i, failures)
		}
		if len(packets) != 1 || packets[0].Frame() != good {
			t.Errorf("Round %d: frame after corruption not recovered", i)
		}
	}
}
