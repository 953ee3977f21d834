// audio_ring_test.go - tests for the SPSC audio ring buffer

package saturn

import "testing"

func TestAudioRingPushDrainRoundTrip(t *testing.T) {
	r := NewAudioRingBuffer()
	samples := []int16{1, 2, 3, 4, 5}
	if n := r.Push(samples); n != 5 {
		t.Fatalf("Push returned %d, want 5", n)
	}
	out := make([]int16, 5)
	if n := r.Drain(out); n != 5 {
		t.Fatalf("Drain returned %d, want 5", n)
	}
	for i, v := range samples {
		if out[i] != v {
			t.Fatalf("out[%d]=%d, want %d", i, out[i], v)
		}
	}
}

func TestAudioRingDrainPartialWhenStarved(t *testing.T) {
	r := NewAudioRingBuffer()
	r.Push([]int16{10, 20})
	out := make([]int16, 5)
	if n := r.Drain(out); n != 2 {
		t.Fatalf("Drain returned %d, want 2", n)
	}
}

func TestAudioRingPushDropsOnOverflowRatherThanBlock(t *testing.T) {
	r := NewAudioRingBuffer()
	full := make([]int16, audioRingCapacity+100)
	n := r.Push(full)
	if n != audioRingCapacity {
		t.Fatalf("Push wrote %d, want cap %d", n, audioRingCapacity)
	}
	if r.Available() != audioRingCapacity {
		t.Fatalf("Available()=%d, want %d", r.Available(), audioRingCapacity)
	}
}

func TestAudioRingAvailableTracksUndrainedSamples(t *testing.T) {
	r := NewAudioRingBuffer()
	r.Push([]int16{1, 2, 3})
	if r.Available() != 3 {
		t.Fatalf("Available()=%d, want 3", r.Available())
	}
	r.Drain(make([]int16, 2))
	if r.Available() != 1 {
		t.Fatalf("Available()=%d, want 1", r.Available())
	}
}
