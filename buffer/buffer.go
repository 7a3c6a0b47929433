/*
 * MIT License
 *
 * Copyright (c) 2026 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package buffer implements the contiguous, growable byte region used to
// stage both incoming and outgoing bytes for every connection the reactor
// drives. It is not safe for concurrent use: only the goroutine that owns a
// connection's read or write side ever touches one.
package buffer

// DefaultSize is used by New when a caller does not care about the initial
// capacity.
const DefaultSize = 32 * 1024

// normalizeThreshold controls when Normalize is invoked automatically before
// a read: once the already-read prefix covers at least this fraction
// (1/normalizeThreshold) of capacity, it is cheaper to shift the unread bytes
// down than to keep growing.
const normalizeThreshold = 4

// MessageBuffer is a contiguous byte region with independent read and write
// cursors. The invariant read <= write <= cap(data) holds at all times.
type MessageBuffer struct {
	data  []byte
	read  int
	write int
}

// New allocates a MessageBuffer with the requested initial capacity. A size
// of 0 or less uses DefaultSize.
func New(size int) *MessageBuffer {
	if size <= 0 {
		size = DefaultSize
	}
	return &MessageBuffer{data: make([]byte, size)}
}

// Len returns the number of unread bytes (ActiveSize in the design's terms).
func (b *MessageBuffer) Len() int {
	return b.write - b.read
}

// Cap returns the total capacity backing the buffer.
func (b *MessageBuffer) Cap() int {
	return len(b.data)
}

// Free returns the space available for writing before the buffer must grow.
func (b *MessageBuffer) Free() int {
	return len(b.data) - b.write
}

// Unread returns the slice of bytes not yet consumed by a reader. The slice
// aliases the buffer's backing array and is only valid until the next
// mutating call.
func (b *MessageBuffer) Unread() []byte {
	return b.data[b.read:b.write]
}

// Normalize shifts the unread bytes down to offset 0, reclaiming the space
// occupied by already-read bytes. It is O(Len()).
func (b *MessageBuffer) Normalize() {
	if b.read == 0 {
		return
	}
	n := copy(b.data, b.data[b.read:b.write])
	b.read = 0
	b.write = n
}

// EnsureFree grows the buffer, doubling capacity until Free() >= n. It never
// shrinks the buffer. Normalize is applied first whenever the already-read
// prefix covers at least a quarter of capacity, since compaction is usually
// cheaper than growth.
func (b *MessageBuffer) EnsureFree(n int) {
	if n <= 0 {
		return
	}
	if b.read > 0 && len(b.data) > 0 && b.read >= len(b.data)/normalizeThreshold {
		b.Normalize()
	}
	if b.Free() >= n {
		return
	}
	want := len(b.data)
	if want == 0 {
		want = DefaultSize
	}
	for want-b.write < n {
		want *= 2
	}
	grown := make([]byte, want)
	copy(grown, b.data[:b.write])
	b.data = grown
}

// WriteTail returns the writable tail of the buffer, guaranteed to be at
// least n bytes long after a call to EnsureFree(n). Callers write into this
// slice directly (e.g. the destination of a socket read) and then call
// WriteCompleted with the number of bytes actually produced.
func (b *MessageBuffer) WriteTail() []byte {
	return b.data[b.write:]
}

// WriteCompleted advances the write cursor by n, committing bytes already
// placed in WriteTail.
func (b *MessageBuffer) WriteCompleted(n int) {
	b.write += n
}

// Append copies p into the buffer, growing it first if required. It is the
// common path for queuing outbound application data.
func (b *MessageBuffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.EnsureFree(len(p))
	b.write += copy(b.data[b.write:], p)
}

// ReadCompleted advances the read cursor by n, discarding bytes already
// delivered to the protocol or already transmitted on the wire.
func (b *MessageBuffer) ReadCompleted(n int) {
	b.read += n
	if b.read == b.write {
		b.read = 0
		b.write = 0
	}
}

// Reset empties the buffer without releasing its backing array.
func (b *MessageBuffer) Reset() {
	b.read = 0
	b.write = 0
}
