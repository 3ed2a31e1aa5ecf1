package q565

import "encoding/binary"

// StreamEncoder encodes a pixel sequence into caller-supplied output
// windows of any size, suspending when a window fills and resuming exactly
// where it left off. It performs no allocation after construction, which
// makes it usable from an interrupt-driven or polling embedded main loop.
//
// All progress is carried as data: remaining header or record bytes, the
// pixel position, the color cache and the previous pixel. Output produced
// across arbitrary window sizes is byte-identical to a single unbounded
// encode of the same input.
type StreamEncoder struct {
	cache colorCache
	comps [cacheSize][3]uint8
	prev  uint16
	prevC [3]uint8

	pixels []uint16
	pos    int

	// pending stages the header or the current record until it is fully
	// flushed; suspension can only happen inside a flush, so the per-pixel
	// bookkeeping never has to be rewound.
	pending [headerSize]byte
	pendLen uint8
	pendOff uint8

	done bool
}

// NewStreamEncoder validates the image geometry and stages the stream
// header. The pixels slice must hold exactly width*height packed RGB565
// values in row-major order and must not be modified until encoding is
// done; it is not retained beyond that.
//
// Dimension errors are reported here, before any byte is produced, so
// retrying with corrected inputs is always safe.
func NewStreamEncoder(width, height int, pixels []uint16) (*StreamEncoder, error) {
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return nil, ErrDimensionMismatch
	}
	if int64(width)*int64(height) != int64(len(pixels)) {
		return nil, ErrDimensionMismatch
	}

	e := &StreamEncoder{pixels: pixels}
	copy(e.pending[:4], magic[:])
	binary.LittleEndian.PutUint16(e.pending[4:6], uint16(width))
	binary.LittleEndian.PutUint16(e.pending[6:8], uint16(height))
	e.pendLen = headerSize

	return e, nil
}

// Encode writes as much of the stream as fits into dst and returns the
// number of bytes written. StatusSuspended means dst filled up; the caller
// drains it and calls Encode again with a fresh (or the same, emptied)
// window. StatusDone means the end-of-stream marker has been written; later
// calls write nothing and return StatusDone again.
func (e *StreamEncoder) Encode(dst []byte) (int, Status) {
	n := 0

	for {
		// Flush staged bytes first: the header, the end marker, or a record
		// that did not fit into the previous window.
		for e.pendOff < e.pendLen {
			if n == len(dst) {
				return n, StatusSuspended
			}

			dst[n] = e.pending[e.pendOff]
			n++
			e.pendOff++
		}
		e.pendOff, e.pendLen = 0, 0

		if e.done {
			return n, StatusDone
		}

		if e.pos == len(e.pixels) {
			e.pending[0] = opEnd
			e.pendLen = 1
			e.done = true

			continue
		}

		pixel := e.pixels[e.pos]

		if pixel == e.prev {
			// Extend the run as far as the record allows. The previous pixel
			// and the cache are untouched: a run of identical pixels already
			// occupies its slot.
			run := 1
			e.pos++
			for run < maxRunLen && e.pos < len(e.pixels) && e.pixels[e.pos] == e.prev {
				run++
				e.pos++
			}

			e.pending[0] = opRun | uint8(run-1)
			e.pendLen = 1

			continue
		}

		rec := pickRecord(pixel, e.prevC, &e.cache, &e.comps)
		copy(e.pending[:rec.n], rec.buf[:rec.n])
		e.pendLen = rec.n

		r, g, b := unpack565(pixel)
		if rec.insert {
			slot := e.cache.insert(pixel)
			e.comps[slot] = [3]uint8{r, g, b}
		}
		e.prev = pixel
		e.prevC = [3]uint8{r, g, b}
		e.pos++
	}
}

// Encode encodes a complete image and returns the stream as a new buffer.
func Encode(width, height int, pixels []uint16) ([]byte, error) {
	return AppendEncode(nil, width, height, pixels)
}

// AppendEncode appends the encoded stream to dst and returns the extended
// buffer. It is a driver loop around StreamEncoder that supplies an
// ever-growing window, so the produced bytes are identical to the
// streaming path.
func AppendEncode(dst []byte, width, height int, pixels []uint16) ([]byte, error) {
	e, err := NewStreamEncoder(width, height, pixels)
	if err != nil {
		return dst, err
	}

	buf := dst
	if cap(buf)-len(buf) < headerSize+1 {
		// Most images compress well below one byte per pixel; the loop
		// below grows the buffer for the ones that do not.
		grown := make([]byte, len(buf), len(buf)+len(pixels)/2+headerSize+64)
		copy(grown, buf)
		buf = grown
	}

	for {
		n, status := e.Encode(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]

		if status == StatusDone {
			return buf, nil
		}

		grown := make([]byte, len(buf), 2*cap(buf)+64)
		copy(grown, buf)
		buf = grown
	}
}
