// audio_ring.go - single-producer/single-consumer audio sample ring
// (spec.md §4.8 SCSP / Audio Ring Buffer)
//
// The SCSP sample callback (producer, runs on the emulation thread)
// and the host audio pull (consumer, runs on whatever thread the host
// driver uses) never block on each other: the producer drops samples
// rather than overwrite unread ones, and the consumer returns fewer
// samples than requested rather than wait.

package saturn

import "sync/atomic"

// audioRingCapacity must be a power of two so the index mask avoids a
// division on every push/pop.
const audioRingCapacity = 4096

// AudioRingBuffer is a lock-free SPSC ring of interleaved 16-bit PCM
// samples, mirroring the reference m_audioRingBuffer/read/write-pos pair.
type AudioRingBuffer struct {
	buf        [audioRingCapacity]int16
	writePos   atomic.Uint64
	readPos    uint64 // owned by the single consumer, never touched by the producer
}

// NewAudioRingBuffer creates an empty ring.
func NewAudioRingBuffer() *AudioRingBuffer { return &AudioRingBuffer{} }

// Push writes samples produced this frame, dropping the tail of samples
// that would overwrite data the consumer hasn't read yet.
func (r *AudioRingBuffer) Push(samples []int16) (written int) {
	write := r.writePos.Load()
	read := atomic.LoadUint64(&r.readPos)
	for _, s := range samples {
		if write-read >= audioRingCapacity {
			break
		}
		r.buf[write%audioRingCapacity] = s
		write++
		written++
	}
	r.writePos.Store(write)
	return written
}

// Drain copies up to len(out) available samples into out without
// blocking, returning how many were actually available.
func (r *AudioRingBuffer) Drain(out []int16) (read int) {
	write := r.writePos.Load()
	pos := r.readPos
	for read < len(out) && pos < write {
		out[read] = r.buf[pos%audioRingCapacity]
		pos++
		read++
	}
	atomic.StoreUint64(&r.readPos, pos)
	return read
}

// Available reports how many samples are queued for the consumer.
func (r *AudioRingBuffer) Available() int {
	write := r.writePos.Load()
	pos := atomic.LoadUint64(&r.readPos)
	return int(write - pos)
}
