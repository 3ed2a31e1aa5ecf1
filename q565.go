// Package q565 implements the Q565 lossless image format, a QOI-style codec
// specialized for 16-bit RGB565 pixels. It is intended for firmware UI assets
// and framebuffers on embedded targets: the core runs without any heap
// allocation when driven through the streaming API, produces byte-identical
// output on every platform, and carries no dependencies.
//
// # Stream layout
//
// A stream starts with an 8-byte header: the 4-byte magic "q565" followed by
// the image width and height as little-endian uint16 values (1..65535 each).
// The header is followed by a sequence of opcode records, one or more pixels
// each, in row-major order, and ends with the 0xFF end-of-stream marker.
//
// Record kinds, distinguished by the leading bits of the first byte:
//
//	00iiiiii            INDEX        pixel = cache[i]
//	01rrggbb            DIFF         per-channel delta vs. previous pixel,
//	                                 2 bits each, range -2..1, bias +2
//	100ggggg rrrrbbbb   LUMA         green delta -16..15 (bias +16) plus
//	                                 (dr-dg) and (db-dg), -8..7 (bias +8)
//	101ggrr  bbiiiiii   DIFF_INDEX   delta vs. cache[i]: green -4..3
//	                                 (bias +4), red/blue -2..1 (bias +2)
//	11cccccc            RUN          repeat previous pixel c+1 times,
//	                                 c in 0..61 (maximum run 62)
//	11111110 llllllll hhhhhhhh       RGB565 literal, little-endian
//	11111111            end-of-stream marker
//
// Channel deltas use wrapping 5/6/5-bit arithmetic. Both sides maintain a
// 64-entry color cache indexed by (low byte + high byte) & 63 of the packed
// pixel; a pixel is inserted into the cache exactly when it was produced by
// a LUMA, DIFF_INDEX or literal record. The cache, the previous pixel
// (initially zero) and the hash function are fixed parts of the format.
//
// # API
//
// Encode, AppendEncode, Decode, DecodeInto and DecodeConfig are one-shot
// calls for hosts where allocation is acceptable. StreamEncoder and
// StreamDecoder expose the same engine as an explicit, resumable state
// machine over caller-owned fixed-size buffers; the one-shot calls are thin
// driver loops around them. The capi subpackage re-exports the streaming
// API behind a C calling convention.
//
// The format carries no checksum. Structurally valid but corrupted bytes
// decode to wrong pixels without error; callers that need tamper detection
// must layer an external integrity check on top.
package q565

import "errors"

// Standard error types for Q565 encoding and decoding.
var (
	// ErrDimensionMismatch means the supplied pixel count does not match
	// the declared width and height, or a dimension is out of the
	// encodable 1..65535 range. It is reported before any output byte is
	// produced.
	ErrDimensionMismatch = errors.New("pixel count does not match image dimensions")

	// ErrInvalidHeader means the stream does not start with a usable Q565
	// header: wrong magic or a zero dimension.
	ErrInvalidHeader = errors.New("invalid q565 header")

	// ErrUnexpectedEnd means the stream ended before the declared pixel
	// count was produced.
	ErrUnexpectedEnd = errors.New("unexpected end of q565 stream")

	// ErrCorruptStream means a record would produce pixels past the
	// declared image size.
	ErrCorruptStream = errors.New("corrupt q565 stream")

	// ErrTrailingData means bytes follow the end-of-stream marker and
	// Options.StrictTrailer is set.
	ErrTrailingData = errors.New("trailing data after q565 end marker")

	// ErrOutputTooSmall means the caller-supplied pixel buffer cannot hold
	// width*height pixels.
	ErrOutputTooSmall = errors.New("output buffer too small")
)

// Status is the non-error control result of a streaming encode or decode
// step.
type Status uint8

const (
	// StatusSuspended means the call ran out of output space (encode) or
	// input bytes (decode). All progress is preserved; the caller drains
	// or refills its buffer and calls again.
	StatusSuspended Status = iota

	// StatusDone means the stream is complete.
	StatusDone
)

// Header is the fixed metadata preceding the opcode stream.
type Header struct {
	Width  int
	Height int
}

// Image is a decoded RGB565 image. Pix holds Width*Height packed pixels in
// row-major order.
type Image struct {
	Width  int
	Height int
	Pix    []uint16
}

// Options specifies decoding parameters.
type Options struct {
	// Order selects the in-memory byte order of decoded pixels, for
	// writing straight into display memory of either endianness. The
	// default is LittleEndian, which stores pixels as plain uint16 values.
	Order PixelOrder

	// StrictTrailer makes one-shot decoding fail with ErrTrailingData if
	// any bytes follow the end-of-stream marker. By default trailing
	// padding is tolerated.
	StrictTrailer bool
}
