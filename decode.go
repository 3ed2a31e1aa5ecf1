package q565

import (
	"bytes"
	"encoding/binary"
)

// decodeState enumerates the resumable positions of the decoder between
// input bytes. Multi-byte records carry their first byte in carry so a
// record split across two input windows picks up where it stopped.
type decodeState uint8

const (
	stateHeader      decodeState = iota // accumulating the 8 header bytes
	stateOp                             // at a record boundary
	stateLumaIndexed                    // second byte of a LUMA or DIFF_INDEX record
	stateLiteralLo                      // low literal byte
	stateLiteralHi                      // high literal byte
	stateDone                           // end marker consumed
)

// StreamDecoder reconstructs a pixel sequence from input delivered in
// arbitrary chunks, suspending when input runs out and resuming once more
// arrives. It performs no allocation: decoded pixels go straight into the
// caller-owned output buffer, typically a framebuffer.
type StreamDecoder struct {
	state decodeState
	carry byte

	cache colorCache
	prev  uint16

	hdrBuf [headerSize]byte
	hdrLen uint8
	hdr    Header

	out   []uint16
	n     int
	total int

	order         PixelOrder
	strictTrailer bool
}

// NewStreamDecoder returns a decoder that parses the stream header and
// writes decoded pixels into out, which must be able to hold width*height
// pixels once the header is known (ErrOutputTooSmall otherwise). The
// decoder writes into out across calls; the caller must not reuse it for
// anything else until StatusDone.
func NewStreamDecoder(out []uint16, opts ...*Options) *StreamDecoder {
	d := &StreamDecoder{out: out}
	if len(opts) > 0 && opts[0] != nil {
		d.order = opts[0].Order
		d.strictTrailer = opts[0].StrictTrailer
	}

	return d
}

// NewRawStreamDecoder returns a decoder for a bare opcode stream with no
// header, for firmware transports where the geometry is fixed and known on
// both ends. The stream still ends with the usual end marker.
func NewRawStreamDecoder(width, height int, out []uint16, opts ...*Options) (*StreamDecoder, error) {
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return nil, ErrDimensionMismatch
	}

	total := width * height
	if len(out) < total {
		return nil, ErrOutputTooSmall
	}

	d := NewStreamDecoder(out, opts...)
	d.state = stateOp
	d.hdr = Header{Width: width, Height: height}
	d.total = total

	return d, nil
}

// Header returns the parsed stream header. ok is false until the header has
// been consumed.
func (d *StreamDecoder) Header() (Header, bool) {
	return d.hdr, d.state != stateHeader
}

// Produced returns the number of pixels decoded so far.
func (d *StreamDecoder) Produced() int {
	return d.n
}

// Decode consumes as much of src as possible and returns the number of
// bytes consumed. StatusSuspended means src was exhausted mid-stream; the
// caller supplies the next chunk in a later call. StatusDone means the end
// marker was consumed; remaining bytes in src are left untouched.
//
// A fatal error poisons the decode: the pixels written so far must be
// discarded and the status ignored.
func (d *StreamDecoder) Decode(src []byte) (int, Status, error) {
	i := 0

	for {
		if d.state == stateDone {
			return i, StatusDone, nil
		}
		if i == len(src) {
			return i, StatusSuspended, nil
		}

		b := src[i]
		i++

		switch d.state {
		case stateHeader:
			d.hdrBuf[d.hdrLen] = b
			d.hdrLen++
			if d.hdrLen == headerSize {
				if err := d.parseHeader(); err != nil {
					return i, StatusSuspended, err
				}
			}

		case stateOp:
			if err := d.op(b); err != nil {
				return i, StatusSuspended, err
			}

		case stateLumaIndexed:
			var pixel uint16
			if d.carry&0x20 == 0 {
				pixel = lumaPixel(d.prev, d.carry, b)
			} else {
				pixel = indexedDiffPixel(&d.cache, d.carry, b)
			}
			if err := d.emit(pixel, true); err != nil {
				return i, StatusSuspended, err
			}

		case stateLiteralLo:
			d.carry = b
			d.state = stateLiteralHi

		case stateLiteralHi:
			if err := d.emit(uint16(d.carry)|uint16(b)<<8, true); err != nil {
				return i, StatusSuspended, err
			}
		}
	}
}

func (d *StreamDecoder) parseHeader() error {
	if !bytes.Equal(d.hdrBuf[:4], magic[:]) {
		return ErrInvalidHeader
	}

	w := int(binary.LittleEndian.Uint16(d.hdrBuf[4:6]))
	h := int(binary.LittleEndian.Uint16(d.hdrBuf[6:8]))
	if w == 0 || h == 0 {
		return ErrInvalidHeader
	}

	d.hdr = Header{Width: w, Height: h}
	d.total = w * h
	if len(d.out) < d.total {
		return ErrOutputTooSmall
	}

	d.state = stateOp

	return nil
}

// op dispatches on the first byte of a record.
func (d *StreamDecoder) op(b byte) error {
	switch {
	case b == opEnd:
		if d.n != d.total {
			return ErrUnexpectedEnd
		}
		d.state = stateDone

		return nil

	case b == opRGB565:
		d.state = stateLiteralLo

		return nil

	case b >= opRun:
		// Runs replay the previous pixel and leave the cache alone,
		// matching the encoder's bookkeeping.
		count := int(b&0x3f) + 1
		if d.n+count > d.total {
			return ErrCorruptStream
		}

		v := d.order.wire(d.prev)
		for j := 0; j < count; j++ {
			d.out[d.n] = v
			d.n++
		}

		return nil

	case b < opDiff:
		return d.emit(d.cache.at(b), false)

	case b < opLuma:
		return d.emit(smallDiffPixel(d.prev, b), false)

	default:
		d.carry = b
		d.state = stateLumaIndexed

		return nil
	}
}

// emit writes one reconstructed pixel, updating the previous pixel and,
// for record kinds that require it, the cache, in lockstep with the
// encoder.
func (d *StreamDecoder) emit(pixel uint16, insert bool) error {
	if d.n == d.total {
		return ErrCorruptStream
	}

	if insert {
		d.cache.insert(pixel)
	}
	d.prev = pixel
	d.out[d.n] = d.order.wire(pixel)
	d.n++
	d.state = stateOp

	return nil
}

// Decode decodes a complete stream and returns the image. It accepts an
// optional Options struct to control the pixel byte order and trailer
// strictness.
func Decode(data []byte, opts ...*Options) (*Image, error) {
	hdr, err := DecodeConfig(data)
	if err != nil {
		return nil, err
	}

	// A stream of n pixels is at least ceil(n/62) record bytes plus the end
	// marker; reject impossible headers before sizing the output.
	total := hdr.Width * hdr.Height
	if len(data)-headerSize < (total+maxRunLen-1)/maxRunLen+1 {
		return nil, ErrUnexpectedEnd
	}

	out := make([]uint16, total)
	if _, _, err := decodeFull(data, out, opts...); err != nil {
		return nil, err
	}

	return &Image{Width: hdr.Width, Height: hdr.Height, Pix: out}, nil
}

// DecodeInto decodes a complete stream into a caller-supplied buffer
// without allocating, and returns the header and the number of pixels
// written.
func DecodeInto(data []byte, out []uint16, opts ...*Options) (Header, int, error) {
	hdr, n, err := decodeFull(data, out, opts...)
	if err != nil {
		return Header{}, 0, err
	}

	return hdr, n, nil
}

// DecodeConfig returns the image dimensions without decoding any pixel
// data.
func DecodeConfig(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, ErrUnexpectedEnd
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return Header{}, ErrInvalidHeader
	}

	w := int(binary.LittleEndian.Uint16(data[4:6]))
	h := int(binary.LittleEndian.Uint16(data[6:8]))
	if w == 0 || h == 0 {
		return Header{}, ErrInvalidHeader
	}

	return Header{Width: w, Height: h}, nil
}

// decodeFull drives the streaming decoder over a complete input buffer. In
// this owning mode exhaustion is not resumable and maps to ErrUnexpectedEnd.
func decodeFull(data []byte, out []uint16, opts ...*Options) (Header, int, error) {
	d := NewStreamDecoder(out, opts...)

	consumed, status, err := d.Decode(data)
	if err != nil {
		return Header{}, 0, err
	}
	if status != StatusDone {
		return Header{}, 0, ErrUnexpectedEnd
	}
	if d.strictTrailer && consumed < len(data) {
		return Header{}, 0, ErrTrailingData
	}

	return d.hdr, d.n, nil
}
